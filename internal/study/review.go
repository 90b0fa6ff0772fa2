package study

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/sm2"
	"github.com/conorfennell/knolstudy/internal/storage"
)

// ReviewRequest rates one card within a session.
type ReviewRequest struct {
	OwnerID   string `validate:"required"`
	CardID    string `validate:"required,uuid"`
	SessionID string `validate:"required,uuid"`
	Quality   *int   `validate:"required,min=0,max=5"`
}

// CardRequest addresses a single card.
type CardRequest struct {
	OwnerID string `validate:"required"`
	CardID  string `validate:"required,uuid"`
}

// SubmitReview records a rating and advances the card's schedule.
//
// The review record and the new card state commit together. A review that
// loses a concurrent update of the same card is recomputed from the fresh
// state, up to Policy.MaxRetries times.
func (s *Service) SubmitReview(ctx context.Context, req ReviewRequest) (*domain.Card, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetSession(ctx, req.OwnerID, req.SessionID); err != nil {
		return nil, translate(err, "session")
	}

	quality := *req.Quality
	for attempt := 0; ; attempt++ {
		now := s.now()
		card, err := s.store.ApplyReview(ctx, req.OwnerID, req.CardID, func(card *domain.Card) (*domain.Review, error) {
			return s.rate(card, req.OwnerID, req.SessionID, quality, now), nil
		})
		if err == nil {
			slog.Debug("recorded review",
				"card_id", card.ID,
				"quality", quality,
				"interval", card.Interval,
				"ease_factor", card.EaseFactor,
			)
			return card, nil
		}
		if !errors.Is(err, storage.ErrConflict) || attempt >= s.policy.MaxRetries {
			return nil, translate(err, "card")
		}
		slog.Warn("review lost a concurrent update, retrying", "card_id", req.CardID, "attempt", attempt+1, "error", err)
	}
}

// rate applies the scheduling engine to card in place and returns the review record.
func (s *Service) rate(card *domain.Card, ownerID, sessionID string, quality int, now time.Time) *domain.Review {
	next := s.engine.NextState(sm2.CardState{
		Repetitions: card.Repetitions,
		EaseFactor:  card.EaseFactor,
		Interval:    card.Interval,
	}, float64(quality), now)

	review := &domain.Review{
		ID:                 uuid.NewString(),
		OwnerID:            ownerID,
		CardID:             card.ID,
		SessionID:          sessionID,
		Quality:            quality,
		PreviousInterval:   card.Interval,
		PreviousEaseFactor: card.EaseFactor,
		NewInterval:        next.Interval,
		NewEaseFactor:      next.EaseFactor,
		ReviewedAt:         now,
	}

	card.Repetitions = next.Repetitions
	card.EaseFactor = next.EaseFactor
	card.Interval = next.Interval
	card.NextReview = next.NextReview
	card.LastReview = &now
	card.UpdatedAt = now
	return review
}

// ResetCard restores a card's default schedule. Its review history is kept.
func (s *Service) ResetCard(ctx context.Context, req CardRequest) (*domain.Card, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	card, err := s.store.ResetCard(ctx, req.OwnerID, req.CardID, s.now())
	if err != nil {
		return nil, translate(err, "card")
	}
	slog.Info("reset card schedule", "card_id", card.ID)
	return card, nil
}

// GetCard returns a card owned by the caller.
func (s *Service) GetCard(ctx context.Context, req CardRequest) (*domain.Card, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	card, err := s.store.GetCard(ctx, req.OwnerID, req.CardID)
	if err != nil {
		return nil, translate(err, "card")
	}
	return card, nil
}
