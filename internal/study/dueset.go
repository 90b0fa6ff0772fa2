package study

import (
	"context"
	"log/slog"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/storage"
)

// DueCardsRequest asks for the cards of one study session.
type DueCardsRequest struct {
	OwnerID         string `validate:"required"`
	DeckID          string `validate:"required,uuid"`
	Limit           int    `validate:"gte=0"` // 0 selects the policy default
	IncludeSubDecks bool
}

// DueCards selects and shuffles the cards to present in a session.
//
// New cards (no successful review yet) are taken oldest created first up to
// the policy's new-card quota. Review cards due by the end of today fill the
// remaining slots, most overdue first. The selection is read only.
func (s *Service) DueCards(ctx context.Context, req DueCardsRequest) ([]*domain.Card, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.policy.DefaultLimit
	}
	if s.policy.MaxLimit > 0 && limit > s.policy.MaxLimit {
		return nil, apperr.InvalidInput("limit exceeds the maximum session size", nil)
	}

	deckIDs, err := s.deckScope(ctx, req.OwnerID, req.DeckID, req.IncludeSubDecks)
	if err != nil {
		return nil, err
	}

	newQuota := s.policy.NewCardQuota(limit)
	newCards, err := s.listCards(ctx, &storage.FindCard{DeckIDs: deckIDs, Filter: storage.NewCards, Limit: newQuota})
	if err != nil {
		return nil, err
	}

	endOfDay := s.engine.EndOfDay(s.now())
	dueCards, err := s.listCards(ctx, &storage.FindCard{
		DeckIDs:   deckIDs,
		Filter:    storage.ReviewCards,
		DueBefore: &endOfDay,
		Limit:     limit - len(newCards),
	})
	if err != nil {
		return nil, err
	}

	if s.policy.BackfillNew && len(newCards) == newQuota {
		if slack := limit - len(newCards) - len(dueCards); slack > 0 {
			newCards, err = s.listCards(ctx, &storage.FindCard{DeckIDs: deckIDs, Filter: storage.NewCards, Limit: newQuota + slack})
			if err != nil {
				return nil, err
			}
		}
	}

	selected := make([]*domain.Card, 0, len(newCards)+len(dueCards))
	selected = append(selected, newCards...)
	selected = append(selected, dueCards...)

	r := s.newRand()
	r.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	slog.Debug("built study session",
		"deck_id", req.DeckID,
		"decks", len(deckIDs),
		"limit", limit,
		"new", len(newCards),
		"due", len(dueCards),
	)
	return selected, nil
}

// listCards treats a non-positive limit as an empty selection rather than no limit.
func (s *Service) listCards(ctx context.Context, find *storage.FindCard) ([]*domain.Card, error) {
	if find.Limit <= 0 {
		return nil, nil
	}
	cards, err := s.store.ListCards(ctx, find)
	if err != nil {
		return nil, translate(err, "cards")
	}
	return cards, nil
}
