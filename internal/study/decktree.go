package study

import (
	"context"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// subtree returns rootID followed by the IDs of all its descendants.
// The walk uses an explicit stack over a parent to children index, so deck
// depth is bounded only by memory. A visited set stops on malformed cycles.
func subtree(decks []*domain.Deck, rootID string) []string {
	children := make(map[string][]string, len(decks))
	for _, d := range decks {
		if d.ParentID != nil {
			children[*d.ParentID] = append(children[*d.ParentID], d.ID)
		}
	}

	var ids []string
	seen := make(map[string]bool, len(decks))
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		stack = append(stack, children[id]...)
	}
	return ids
}

// deckScope resolves the decks whose cards belong to a session on deckID.
func (s *Service) deckScope(ctx context.Context, ownerID, deckID string, includeSubDecks bool) ([]string, error) {
	if _, err := s.store.GetDeck(ctx, ownerID, deckID); err != nil {
		return nil, translate(err, "deck")
	}
	if !includeSubDecks {
		return []string{deckID}, nil
	}

	decks, err := s.store.ListDecks(ctx, ownerID)
	if err != nil {
		return nil, translate(err, "decks")
	}
	return subtree(decks, deckID), nil
}
