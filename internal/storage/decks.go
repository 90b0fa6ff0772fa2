package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// CreateDeck inserts a new deck.
func (db *DB) CreateDeck(ctx context.Context, deck *domain.Deck) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO decks (id, owner_id, parent_id, name, created_ts)
		VALUES (?, ?, ?, ?, ?)
	`),
		deck.ID,
		deck.OwnerID,
		nullString(deck.ParentID),
		deck.Name,
		toTs(deck.CreatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert deck %s", deck.ID)
	}
	return nil
}

// GetDeck retrieves a deck owned by ownerID.
func (db *DB) GetDeck(ctx context.Context, ownerID, deckID string) (*domain.Deck, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT id, owner_id, parent_id, name, created_ts
		FROM decks WHERE id = ? AND owner_id = ?
	`), deckID, ownerID)

	deck, err := scanDeck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "deck %s", deckID)
		}
		return nil, errors.Wrapf(err, "failed to find deck %s", deckID)
	}
	return deck, nil
}

// ListDecks retrieves every deck owned by ownerID.
func (db *DB) ListDecks(ctx context.Context, ownerID string) ([]*domain.Deck, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT id, owner_id, parent_id, name, created_ts
		FROM decks WHERE owner_id = ?
		ORDER BY created_ts ASC, name ASC
	`), ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list decks")
	}
	defer rows.Close()

	decks := make([]*domain.Deck, 0)
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan deck row")
		}
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate decks")
	}
	return decks, nil
}

// CountDecks counts the decks owned by ownerID.
func (db *DB) CountDecks(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, db.rebind(`SELECT COUNT(*) FROM decks WHERE owner_id = ?`), ownerID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count decks")
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeck(s scanner) (*domain.Deck, error) {
	var (
		deck      domain.Deck
		parentID  sql.NullString
		createdTs int64
	)
	if err := s.Scan(&deck.ID, &deck.OwnerID, &parentID, &deck.Name, &createdTs); err != nil {
		return nil, err
	}
	if parentID.Valid {
		deck.ParentID = &parentID.String
	}
	deck.CreatedAt = fromTs(createdTs)
	return &deck, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
