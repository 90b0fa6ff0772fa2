package study

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/domain"
)

func ids(cards []*domain.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func countNew(cards []*domain.Card) int {
	n := 0
	for _, c := range cards {
		if c.IsNew() {
			n++
		}
	}
	return n
}

func TestNewCardQuota(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.NewCardQuota(9))
	assert.Equal(t, 3, p.NewCardQuota(10))
	assert.Equal(t, 0, p.NewCardQuota(2))
	assert.Equal(t, 0, Policy{}.NewCardQuota(9))
}

func TestDueCards(t *testing.T) {
	t.Run("fills remaining slots with the most overdue cards", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		fresh := env.newCards(t, deck, 2)
		due := env.dueCards(t, deck, 10)

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 9})
		require.NoError(t, err)
		require.Len(t, cards, 9)
		assert.Equal(t, 2, countNew(cards))

		want := append(ids(fresh), ids(due[3:])...)
		assert.ElementsMatch(t, want, ids(cards))
	})

	t.Run("caps new cards at the quota", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		fresh := env.newCards(t, deck, 5)
		env.dueCards(t, deck, 10)

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 9})
		require.NoError(t, err)
		require.Len(t, cards, 9)
		assert.Equal(t, 3, countNew(cards))
		assert.Subset(t, ids(cards), ids(fresh[:3]), "oldest new cards come first")
	})

	t.Run("takes new cards added in the same second in insertion order", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		var added []string
		for i := 0; i < 12; i++ {
			card, err := env.svc.AddCard(env.ctx, AddCardRequest{
				OwnerID: "alice",
				DeckID:  deck.ID,
				Front:   fmt.Sprintf("q%02d", i),
				Back:    "a",
			})
			require.NoError(t, err)
			added = append(added, card.ID)
		}

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 9})
		require.NoError(t, err)
		require.Len(t, cards, 3)
		assert.ElementsMatch(t, added[:3], ids(cards))
	})

	t.Run("excludes cards due after today", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		later := env.card(t, deck, now, 2, now.Add(5*time.Hour))
		env.card(t, deck, now, 2, now.AddDate(0, 0, 1))

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 9})
		require.NoError(t, err)
		assert.Equal(t, []string{later.ID}, ids(cards))
	})

	t.Run("empty when nothing is due", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		env.card(t, deck, now, 3, now.AddDate(0, 0, 4))

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 9})
		require.NoError(t, err)
		assert.Empty(t, cards)
	})

	t.Run("small limit leaves no room for new cards", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		env.newCards(t, deck, 4)

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, cards)
	})

	t.Run("default limit", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		env.dueCards(t, deck, 25)

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID})
		require.NoError(t, err)
		assert.Len(t, cards, 20)
	})

	t.Run("backfill lets new cards take empty review slots", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.BackfillNew = true
		env := newTestEnv(t, policy)
		deck := env.deck(t, "alice", nil)
		env.newCards(t, deck, 5)
		env.dueCards(t, deck, 1)

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 9})
		require.NoError(t, err)
		assert.Len(t, cards, 6)
		assert.Equal(t, 5, countNew(cards))
	})

	t.Run("without backfill the quota holds", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		env.newCards(t, deck, 5)
		env.dueCards(t, deck, 1)

		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 9})
		require.NoError(t, err)
		assert.Len(t, cards, 4)
		assert.Equal(t, 3, countNew(cards))
	})

	t.Run("same random source gives the same order", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		env.dueCards(t, deck, 12)

		req := DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 12}
		first, err := env.svc.DueCards(env.ctx, req)
		require.NoError(t, err)
		second, err := env.svc.DueCards(env.ctx, req)
		require.NoError(t, err)
		assert.Equal(t, ids(first), ids(second))
	})

	t.Run("selection does not change cards", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		deck := env.deck(t, "alice", nil)
		card := env.dueCards(t, deck, 1)[0]

		_, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: deck.ID, Limit: 9})
		require.NoError(t, err)
		stored, err := env.db.GetCard(env.ctx, "alice", card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.Version, stored.Version)
		assert.True(t, card.NextReview.Equal(stored.NextReview))
	})
}

func TestDueCardsSubDecks(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	root := env.deck(t, "alice", nil)
	child := env.deck(t, "alice", root)
	grandchild := env.deck(t, "alice", child)
	sibling := env.deck(t, "alice", nil)
	foreign := env.deck(t, "bob", nil)

	inRoot := env.dueCards(t, root, 1)
	inChild := env.dueCards(t, child, 1)
	inGrandchild := env.dueCards(t, grandchild, 1)
	env.dueCards(t, sibling, 1)
	env.dueCards(t, foreign, 1)

	t.Run("whole subtree", func(t *testing.T) {
		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: root.ID, Limit: 9, IncludeSubDecks: true})
		require.NoError(t, err)
		want := []string{inRoot[0].ID, inChild[0].ID, inGrandchild[0].ID}
		assert.ElementsMatch(t, want, ids(cards))
	})

	t.Run("deck only", func(t *testing.T) {
		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: root.ID, Limit: 9})
		require.NoError(t, err)
		assert.Equal(t, []string{inRoot[0].ID}, ids(cards))
	})

	t.Run("inner deck", func(t *testing.T) {
		cards, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: child.ID, Limit: 9, IncludeSubDecks: true})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{inChild[0].ID, inGrandchild[0].ID}, ids(cards))
	})

	t.Run("deck of another user", func(t *testing.T) {
		_, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: foreign.ID, Limit: 9})
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("unknown deck", func(t *testing.T) {
		_, err := env.svc.DueCards(env.ctx, DueCardsRequest{OwnerID: "alice", DeckID: uuid.NewString(), Limit: 9})
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})
}

func TestDueCardsInvalidInput(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)

	for name, req := range map[string]DueCardsRequest{
		"malformed deck id": {OwnerID: "alice", DeckID: "not-a-uuid", Limit: 9},
		"missing owner":     {DeckID: deck.ID, Limit: 9},
		"negative limit":    {OwnerID: "alice", DeckID: deck.ID, Limit: -1},
		"limit above max":   {OwnerID: "alice", DeckID: deck.ID, Limit: 501},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.DueCards(env.ctx, req)
			assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
		})
	}
}
