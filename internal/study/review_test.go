package study

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/storage"
)

// contendedStore loses the first failures calls to ApplyReview.
type contendedStore struct {
	*storage.DB
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *contendedStore) ApplyReview(ctx context.Context, ownerID, cardID string, fn storage.ReviewFunc) (*domain.Card, error) {
	s.mu.Lock()
	s.calls++
	lose := s.calls <= s.failures
	s.mu.Unlock()
	if lose {
		return nil, errors.Wrap(storage.ErrConflict, "card changed")
	}
	return s.DB.ApplyReview(ctx, ownerID, cardID, fn)
}

func (e *testEnv) session(t *testing.T, owner string, deck *domain.Deck) *domain.Session {
	t.Helper()
	session, err := e.svc.StartSession(e.ctx, DeckRequest{OwnerID: owner, DeckID: deck.ID})
	require.NoError(t, err)
	return session
}

func (e *testEnv) addCard(t *testing.T, owner string, deck *domain.Deck, front string) *domain.Card {
	t.Helper()
	card, err := e.svc.AddCard(e.ctx, AddCardRequest{OwnerID: owner, DeckID: deck.ID, Front: front, Back: "answer"})
	require.NoError(t, err)
	return card
}

func (e *testEnv) review(t *testing.T, owner string, card *domain.Card, session *domain.Session, quality int) *domain.Card {
	t.Helper()
	updated, err := e.svc.SubmitReview(e.ctx, ReviewRequest{
		OwnerID:   owner,
		CardID:    card.ID,
		SessionID: session.ID,
		Quality:   intPtr(quality),
	})
	require.NoError(t, err)
	return updated
}

func TestSubmitReview(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)
	session := env.session(t, "alice", deck)
	card := env.addCard(t, "alice", deck, "capital of France")

	var intervals []int
	for range 3 {
		card = env.review(t, "alice", card, session, 5)
		intervals = append(intervals, card.Interval)
	}
	assert.Equal(t, []int{1, 6, 17}, intervals)
	assert.Equal(t, 3, card.Repetitions)
	assert.InDelta(t, 2.8, card.EaseFactor, 1e-9)
	assert.True(t, card.NextReview.Equal(now.Truncate(24*time.Hour).AddDate(0, 0, 17)))
	require.NotNil(t, card.LastReview)
	assert.True(t, card.LastReview.Equal(now))

	stored, err := env.db.GetCard(env.ctx, "alice", card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.Interval, stored.Interval)
	assert.Equal(t, card.Version, stored.Version)

	reviews, err := env.db.ListReviews(env.ctx, &storage.FindReview{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	last := reviews[2]
	assert.Equal(t, session.ID, last.SessionID)
	assert.Equal(t, 5, last.Quality)
	assert.Equal(t, 6, last.PreviousInterval)
	assert.Equal(t, 17, last.NewInterval)
	assert.InDelta(t, 2.7, last.PreviousEaseFactor, 1e-9)
	assert.InDelta(t, 2.8, last.NewEaseFactor, 1e-9)
}

func TestSubmitReviewLapse(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)
	session := env.session(t, "alice", deck)
	card := env.addCard(t, "alice", deck, "capital of Peru")

	card = env.review(t, "alice", card, session, 5)
	card = env.review(t, "alice", card, session, 5)
	card = env.review(t, "alice", card, session, 1)

	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, 1, card.Interval)
	assert.InDelta(t, 2.16, card.EaseFactor, 1e-9)
	assert.True(t, card.NextReview.Equal(now.Truncate(24*time.Hour).AddDate(0, 0, 1)))
}

func TestResetThenReview(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)
	session := env.session(t, "alice", deck)
	card := env.addCard(t, "alice", deck, "capital of Chile")

	for range 4 {
		card = env.review(t, "alice", card, session, 4)
	}

	reset, err := env.svc.ResetCard(env.ctx, CardRequest{OwnerID: "alice", CardID: card.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, reset.Repetitions)
	assert.Equal(t, 0, reset.Interval)
	assert.Equal(t, domain.DefaultEaseFactor, reset.EaseFactor)
	assert.Nil(t, reset.LastReview)
	assert.True(t, reset.NextReview.Equal(now))

	card = reset
	var intervals []int
	for range 3 {
		card = env.review(t, "alice", card, session, 5)
		intervals = append(intervals, card.Interval)
	}
	assert.Equal(t, []int{1, 6, 17}, intervals)

	reviews, err := env.db.ListReviews(env.ctx, &storage.FindReview{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Len(t, reviews, 7, "reset keeps history")
}

func TestSubmitReviewRejects(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)
	session := env.session(t, "alice", deck)
	card := env.addCard(t, "alice", deck, "capital of Spain")

	bobDeck := env.deck(t, "bob", nil)
	bobSession := env.session(t, "bob", bobDeck)

	tests := []struct {
		name string
		req  ReviewRequest
		code apperr.Code
	}{
		{"missing quality", ReviewRequest{OwnerID: "alice", CardID: card.ID, SessionID: session.ID}, apperr.CodeInvalidInput},
		{"quality above range", ReviewRequest{OwnerID: "alice", CardID: card.ID, SessionID: session.ID, Quality: intPtr(6)}, apperr.CodeInvalidInput},
		{"quality below range", ReviewRequest{OwnerID: "alice", CardID: card.ID, SessionID: session.ID, Quality: intPtr(-1)}, apperr.CodeInvalidInput},
		{"malformed card id", ReviewRequest{OwnerID: "alice", CardID: "x", SessionID: session.ID, Quality: intPtr(3)}, apperr.CodeInvalidInput},
		{"malformed session id", ReviewRequest{OwnerID: "alice", CardID: card.ID, SessionID: "x", Quality: intPtr(3)}, apperr.CodeInvalidInput},
		{"unknown card", ReviewRequest{OwnerID: "alice", CardID: uuid.NewString(), SessionID: session.ID, Quality: intPtr(3)}, apperr.CodeNotFound},
		{"session of another user", ReviewRequest{OwnerID: "alice", CardID: card.ID, SessionID: bobSession.ID, Quality: intPtr(3)}, apperr.CodeNotFound},
		{"card of another user", ReviewRequest{OwnerID: "bob", CardID: card.ID, SessionID: bobSession.ID, Quality: intPtr(3)}, apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.SubmitReview(env.ctx, tt.req)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
		})
	}

	stored, err := env.db.GetCard(env.ctx, "alice", card.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Repetitions)
	reviews, err := env.db.ListReviews(env.ctx, &storage.FindReview{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestSubmitReviewClosedSession(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)
	session := env.session(t, "alice", deck)
	card := env.addCard(t, "alice", deck, "capital of Italy")

	_, err := env.svc.EndSession(env.ctx, SessionRequest{OwnerID: "alice", SessionID: session.ID})
	require.NoError(t, err)

	card = env.review(t, "alice", card, session, 4)
	assert.Equal(t, 1, card.Repetitions)
}

func TestSubmitReviewRetriesConflicts(t *testing.T) {
	t.Run("succeeds within the retry budget", func(t *testing.T) {
		var store *contendedStore
		env := newTestEnv(t, DefaultPolicy(), func(db *storage.DB) Store {
			store = &contendedStore{DB: db, failures: 3}
			return store
		})
		deck := env.deck(t, "alice", nil)
		session := env.session(t, "alice", deck)
		card := env.addCard(t, "alice", deck, "capital of Japan")

		card = env.review(t, "alice", card, session, 5)
		assert.Equal(t, 1, card.Repetitions)
		assert.Equal(t, 4, store.calls)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var store *contendedStore
		env := newTestEnv(t, DefaultPolicy(), func(db *storage.DB) Store {
			store = &contendedStore{DB: db, failures: 4}
			return store
		})
		deck := env.deck(t, "alice", nil)
		session := env.session(t, "alice", deck)
		card := env.addCard(t, "alice", deck, "capital of Korea")

		_, err := env.svc.SubmitReview(env.ctx, ReviewRequest{OwnerID: "alice", CardID: card.ID, SessionID: session.ID, Quality: intPtr(5)})
		assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
		assert.Equal(t, 4, store.calls)

		stored, err := env.db.GetCard(env.ctx, "alice", card.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Repetitions)
	})
}

func TestSubmitReviewConcurrent(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)
	session := env.session(t, "alice", deck)
	card := env.addCard(t, "alice", deck, "capital of Egypt")

	const reviewers = 8
	var wg sync.WaitGroup
	errs := make(chan error, reviewers)
	for range reviewers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.SubmitReview(env.ctx, ReviewRequest{OwnerID: "alice", CardID: card.ID, SessionID: session.ID, Quality: intPtr(4)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := env.db.GetCard(env.ctx, "alice", card.ID)
	require.NoError(t, err)
	assert.Equal(t, reviewers, stored.Repetitions)
	reviews, err := env.db.ListReviews(env.ctx, &storage.FindReview{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Len(t, reviews, reviewers)
}

func TestResetCardRejects(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)
	card := env.addCard(t, "alice", deck, "capital of Kenya")

	_, err := env.svc.ResetCard(env.ctx, CardRequest{OwnerID: "bob", CardID: card.ID})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = env.svc.ResetCard(env.ctx, CardRequest{OwnerID: "alice", CardID: "nope"})
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
}
