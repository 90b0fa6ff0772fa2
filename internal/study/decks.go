package study

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/knol"
)

// DeckRequest addresses a deck.
type DeckRequest struct {
	OwnerID string `validate:"required"`
	DeckID  string `validate:"required,uuid"`
}

// CreateDeckRequest creates a deck, optionally below a parent deck.
type CreateDeckRequest struct {
	OwnerID  string  `validate:"required"`
	Name     string  `validate:"required,max=200"`
	ParentID *string `validate:"omitempty,uuid"`
}

// AddCardRequest adds a card to a deck.
type AddCardRequest struct {
	OwnerID string `validate:"required"`
	DeckID  string `validate:"required,uuid"`
	Front   string `validate:"required,max=10000"`
	Back    string `validate:"required,max=10000"`
	Context string `validate:"max=10000"`
}

// CreateDeck creates a deck. A parent deck must be owned by the same user.
func (s *Service) CreateDeck(ctx context.Context, req CreateDeckRequest) (*domain.Deck, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.check(req); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		if _, err := s.store.GetDeck(ctx, req.OwnerID, *req.ParentID); err != nil {
			return nil, translate(err, "parent deck")
		}
	}

	deck := &domain.Deck{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateDeck(ctx, deck); err != nil {
		return nil, translate(err, "deck")
	}
	slog.Info("created deck", "deck_id", deck.ID, "name", deck.Name)
	return deck, nil
}

// GetDeck returns a deck owned by the caller.
func (s *Service) GetDeck(ctx context.Context, req DeckRequest) (*domain.Deck, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	deck, err := s.store.GetDeck(ctx, req.OwnerID, req.DeckID)
	if err != nil {
		return nil, translate(err, "deck")
	}
	return deck, nil
}

// ListDecks returns every deck of a user.
func (s *Service) ListDecks(ctx context.Context, ownerID string) ([]*domain.Deck, error) {
	if ownerID == "" {
		return nil, apperr.InvalidInput("owner is required", nil)
	}
	decks, err := s.store.ListDecks(ctx, ownerID)
	if err != nil {
		return nil, translate(err, "decks")
	}
	return decks, nil
}

// AddCard adds a card with a fresh schedule. A deck holds each card text once;
// adding the same text again fails with a conflict.
func (s *Service) AddCard(ctx context.Context, req AddCardRequest) (*domain.Card, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetDeck(ctx, req.OwnerID, req.DeckID); err != nil {
		return nil, translate(err, "deck")
	}

	content := domain.CardContent{Front: req.Front, Back: req.Back, Context: req.Context}
	hash := knol.Hash(content)
	existing, err := s.store.FindCardByHash(ctx, req.DeckID, hash)
	if err != nil {
		return nil, translate(err, "card")
	}
	if existing != nil {
		return nil, apperr.Conflict("card already exists in deck", nil)
	}

	// Version 7 IDs sort in creation order, breaking ties between cards
	// created within the same second.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Internal("failed to generate card id", err)
	}
	now := s.now()
	card := &domain.Card{
		ID:          id.String(),
		DeckID:      req.DeckID,
		Front:       content.Front,
		Back:        content.Back,
		Context:     content.Context,
		ContentHash: hash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	card.ResetSchedule(s.engine.StartOfDay(now))
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, translate(err, "card")
	}
	return card, nil
}
