// Package study implements study sessions: due-set selection, review
// recording and the deck and card operations they rely on.
package study

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/sm2"
	"github.com/conorfennell/knolstudy/internal/storage"
)

// Store is the data-access collaborator used by the study service.
type Store interface {
	CreateDeck(ctx context.Context, deck *domain.Deck) error
	GetDeck(ctx context.Context, ownerID, deckID string) (*domain.Deck, error)
	ListDecks(ctx context.Context, ownerID string) ([]*domain.Deck, error)

	CreateCard(ctx context.Context, card *domain.Card) error
	GetCard(ctx context.Context, ownerID, cardID string) (*domain.Card, error)
	FindCardByHash(ctx context.Context, deckID, hash string) (*domain.Card, error)
	ListCards(ctx context.Context, find *storage.FindCard) ([]*domain.Card, error)
	ApplyReview(ctx context.Context, ownerID, cardID string, fn storage.ReviewFunc) (*domain.Card, error)
	ResetCard(ctx context.Context, ownerID, cardID string, now time.Time) (*domain.Card, error)

	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, ownerID, sessionID string) (*domain.Session, error)
	EndSession(ctx context.Context, ownerID, sessionID string, now time.Time) (*domain.Session, error)
}

// Policy controls session composition and review retries.
type Policy struct {
	// NewCardDivisor sets the new-card quota to floor(limit / NewCardDivisor).
	NewCardDivisor int
	// BackfillNew lets surplus new cards fill due-card slots left empty.
	BackfillNew  bool
	DefaultLimit int
	MaxLimit     int
	// MaxRetries bounds the retries of a review that lost a concurrent update.
	MaxRetries int
}

// DefaultPolicy returns a third of each session for new cards, no backfill.
func DefaultPolicy() Policy {
	return Policy{
		NewCardDivisor: 3,
		DefaultLimit:   20,
		MaxLimit:       500,
		MaxRetries:     3,
	}
}

// NewCardQuota returns how many new cards a session of the given size may hold.
func (p Policy) NewCardQuota(limit int) int {
	if p.NewCardDivisor <= 0 {
		return 0
	}
	return limit / p.NewCardDivisor
}

// Service runs study sessions against a Store.
type Service struct {
	store    Store
	engine   *sm2.Params
	policy   Policy
	validate *validator.Validate
	now      func() time.Time
	newRand  func() *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand replaces the per-call random source used to shuffle sessions.
func WithRand(newRand func() *rand.Rand) Option {
	return func(s *Service) { s.newRand = newRand }
}

// NewService creates a study service.
func NewService(store Store, engine *sm2.Params, policy Policy, opts ...Option) *Service {
	s := &Service{
		store:    store,
		engine:   engine,
		policy:   policy,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the scheduling parameters in use.
func (s *Service) Engine() *sm2.Params {
	return s.engine
}

func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return apperr.InvalidInput("invalid request", err)
	}
	return nil
}

// translate maps storage errors onto the apperr taxonomy.
func translate(err error, what string) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, storage.ErrConflict):
		return apperr.Conflict(what+" was modified concurrently", err)
	default:
		return apperr.Internal("failed to access "+what, err)
	}
}
