package study

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// SessionRequest addresses a study session.
type SessionRequest struct {
	OwnerID   string `validate:"required"`
	SessionID string `validate:"required,uuid"`
}

// StartSession opens a study session on a deck owned by ownerID.
func (s *Service) StartSession(ctx context.Context, req DeckRequest) (*domain.Session, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetDeck(ctx, req.OwnerID, req.DeckID); err != nil {
		return nil, translate(err, "deck")
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		DeckID:    req.DeckID,
		StartedAt: s.now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, translate(err, "session")
	}
	slog.Info("started study session", "session_id", session.ID, "deck_id", session.DeckID)
	return session, nil
}

// EndSession closes a session. Closing a closed session returns it unchanged.
func (s *Service) EndSession(ctx context.Context, req SessionRequest) (*domain.Session, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	session, err := s.store.EndSession(ctx, req.OwnerID, req.SessionID, s.now())
	if err != nil {
		return nil, translate(err, "session")
	}
	slog.Info("ended study session", "session_id", session.ID)
	return session, nil
}
