package study

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/sm2"
	"github.com/conorfennell/knolstudy/internal/storage"
)

var now = time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	ctx   context.Context
	db    *storage.DB
	svc   *Service
	clock time.Time
}

func newTestEnv(t *testing.T, policy Policy, wrap ...func(*storage.DB) Store) *testEnv {
	t.Helper()
	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	engine := sm2.DefaultParams()
	engine.Location = time.UTC

	env := &testEnv{ctx: context.Background(), db: db, clock: now}
	var store Store = db
	if len(wrap) > 0 {
		store = wrap[0](db)
	}
	env.svc = NewService(store, engine, policy,
		WithClock(func() time.Time { return env.clock }),
		WithRand(func() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }),
	)
	return env
}

func (e *testEnv) deck(t *testing.T, owner string, parent *domain.Deck) *domain.Deck {
	t.Helper()
	req := CreateDeckRequest{OwnerID: owner, Name: "deck"}
	if parent != nil {
		req.ParentID = &parent.ID
	}
	deck, err := e.svc.CreateDeck(e.ctx, req)
	require.NoError(t, err)
	return deck
}

// card stores a card with the given scheduling state directly.
func (e *testEnv) card(t *testing.T, deck *domain.Deck, created time.Time, reps int, next time.Time) *domain.Card {
	t.Helper()
	id := uuid.NewString()
	card := &domain.Card{
		ID:          id,
		DeckID:      deck.ID,
		Front:       "front " + id,
		Back:        "back",
		ContentHash: id,
		EaseFactor:  domain.DefaultEaseFactor,
		Repetitions: reps,
		Interval:    reps * 3,
		NextReview:  next,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, e.db.CreateCard(e.ctx, card))
	return card
}

func (e *testEnv) newCards(t *testing.T, deck *domain.Deck, n int) []*domain.Card {
	var cards []*domain.Card
	for i := 0; i < n; i++ {
		cards = append(cards, e.card(t, deck, now.Add(-time.Duration(n-i)*time.Hour), 0, now))
	}
	return cards
}

func (e *testEnv) dueCards(t *testing.T, deck *domain.Deck, n int) []*domain.Card {
	var cards []*domain.Card
	for i := 0; i < n; i++ {
		cards = append(cards, e.card(t, deck, now.AddDate(0, -1, 0), 2, now.AddDate(0, 0, -i)))
	}
	return cards
}

func intPtr(v int) *int {
	return &v
}
