package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/conorfennell/knolstudy/internal/domain"
)

const cardColumns = `c.id, c.deck_id, c.front, c.back, c.context, c.content_hash,
	c.ease_factor, c.interval_days, c.repetitions, c.next_review_ts, c.last_review_ts,
	c.version, c.created_ts, c.updated_ts`

// CardFilter selects cards by scheduling state.
type CardFilter int

const (
	AllCards CardFilter = iota
	// NewCards have no successful review in their current run (repetitions = 0).
	NewCards
	// ReviewCards have at least one successful review (repetitions > 0).
	ReviewCards
)

// FindCard describes a card query.
// New cards are ordered oldest created first, review cards most overdue first.
type FindCard struct {
	DeckIDs   []string
	Filter    CardFilter
	DueBefore *time.Time // inclusive bound on next_review_ts
	Limit     int
}

// CreateCard inserts a new card with its initial scheduling state.
func (db *DB) CreateCard(ctx context.Context, card *domain.Card) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO cards (id, deck_id, front, back, context, content_hash,
			ease_factor, interval_days, repetitions, next_review_ts, last_review_ts,
			version, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		card.ID,
		card.DeckID,
		card.Front,
		card.Back,
		card.Context,
		card.ContentHash,
		card.EaseFactor,
		card.Interval,
		card.Repetitions,
		toTs(card.NextReview),
		nullTs(card.LastReview),
		card.Version,
		toTs(card.CreatedAt),
		toTs(card.UpdatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert card %s", card.ID)
	}
	return nil
}

// GetCard retrieves a card whose deck is owned by ownerID.
func (db *DB) GetCard(ctx context.Context, ownerID, cardID string) (*domain.Card, error) {
	return db.getCard(ctx, db.conn, ownerID, cardID, false)
}

func (db *DB) getCard(ctx context.Context, q querier, ownerID, cardID string, lock bool) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + `
		FROM cards c JOIN decks d ON d.id = c.deck_id
		WHERE c.id = ? AND d.owner_id = ?`
	if lock {
		query += db.forUpdate("c")
	}

	card, err := scanCard(q.QueryRowContext(ctx, db.rebind(query), cardID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "card %s", cardID)
		}
		return nil, classify(err, fmt.Sprintf("failed to find card %s", cardID))
	}
	return card, nil
}

// FindCardByHash retrieves a card of a deck by its content hash.
// It returns nil, nil when the deck holds no such card.
func (db *DB) FindCardByHash(ctx context.Context, deckID, hash string) (*domain.Card, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`SELECT `+cardColumns+`
		FROM cards c WHERE c.deck_id = ? AND c.content_hash = ?
	`), deckID, hash)

	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to find card by hash %s", hash)
	}
	return card, nil
}

// ListCards retrieves the cards matching find.
func (db *DB) ListCards(ctx context.Context, find *FindCard) ([]*domain.Card, error) {
	cards := make([]*domain.Card, 0)
	if len(find.DeckIDs) == 0 {
		return cards, nil
	}

	where, args := []string{"c.deck_id IN (" + placeholders(len(find.DeckIDs)) + ")"}, []any{}
	for _, id := range find.DeckIDs {
		args = append(args, id)
	}
	orderBy := "c.created_ts ASC, c.id ASC"
	switch find.Filter {
	case NewCards:
		where = append(where, "c.repetitions = 0")
	case ReviewCards:
		where = append(where, "c.repetitions > 0")
		orderBy = "c.next_review_ts ASC, c.id ASC"
	}
	if v := find.DueBefore; v != nil {
		where, args = append(where, "c.next_review_ts <= ?"), append(args, toTs(*v))
	}

	query := `SELECT ` + cardColumns + ` FROM cards c
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + orderBy
	if find.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, find.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query cards")
	}
	defer rows.Close()

	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan card row")
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate cards")
	}
	return cards, nil
}

// CountCards counts the cards in decks owned by ownerID.
func (db *DB) CountCards(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT COUNT(*) FROM cards c JOIN decks d ON d.id = c.deck_id
		WHERE d.owner_id = ?
	`), ownerID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count cards")
	}
	return n, nil
}

// CountDueCards counts the cards of ownerID scheduled at or before the given time.
func (db *DB) CountDueCards(ctx context.Context, ownerID string, before time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT COUNT(*) FROM cards c JOIN decks d ON d.id = c.deck_id
		WHERE d.owner_id = ? AND c.next_review_ts <= ?
	`), ownerID, toTs(before)).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count due cards")
	}
	return n, nil
}

// ReviewFunc computes a review from the stored card and applies the new
// scheduling state to the card in place.
type ReviewFunc func(card *domain.Card) (*domain.Review, error)

// ApplyReview atomically reads a card, lets fn compute the transition, appends
// the review record and writes the card back. It returns ErrConflict if another
// writer updated the card in between.
func (db *DB) ApplyReview(ctx context.Context, ownerID, cardID string, fn ReviewFunc) (*domain.Card, error) {
	var updated *domain.Card
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		card, err := db.getCard(ctx, tx, ownerID, cardID, true)
		if err != nil {
			return err
		}

		review, err := fn(card)
		if err != nil {
			return err
		}
		if err := db.insertReview(ctx, tx, review); err != nil {
			return err
		}
		if err := db.updateSchedule(ctx, tx, card); err != nil {
			return err
		}
		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ResetCard restores a card's default scheduling state. Reviews are kept.
func (db *DB) ResetCard(ctx context.Context, ownerID, cardID string, now time.Time) (*domain.Card, error) {
	var updated *domain.Card
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		card, err := db.getCard(ctx, tx, ownerID, cardID, true)
		if err != nil {
			return err
		}
		card.ResetSchedule(now)
		card.UpdatedAt = now
		if err := db.updateSchedule(ctx, tx, card); err != nil {
			return err
		}
		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// updateSchedule writes the scheduling fields if the stored version still
// matches card.Version, then advances card.Version.
func (db *DB) updateSchedule(ctx context.Context, tx *sql.Tx, card *domain.Card) error {
	res, err := tx.ExecContext(ctx, db.rebind(`
		UPDATE cards
		SET ease_factor = ?, interval_days = ?, repetitions = ?, next_review_ts = ?,
			last_review_ts = ?, updated_ts = ?, version = version + 1
		WHERE id = ? AND version = ?
	`),
		card.EaseFactor,
		card.Interval,
		card.Repetitions,
		toTs(card.NextReview),
		nullTs(card.LastReview),
		toTs(card.UpdatedAt),
		card.ID,
		card.Version,
	)
	if err != nil {
		return classify(err, fmt.Sprintf("failed to update card state for %s", card.ID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.Wrapf(ErrConflict, "card %s changed since version %d", card.ID, card.Version)
	}
	card.Version++
	return nil
}

func scanCard(s scanner) (*domain.Card, error) {
	var (
		card                               domain.Card
		nextReviewTs, createdTs, updatedTs int64
		lastReviewTs                       sql.NullInt64
	)
	if err := s.Scan(
		&card.ID,
		&card.DeckID,
		&card.Front,
		&card.Back,
		&card.Context,
		&card.ContentHash,
		&card.EaseFactor,
		&card.Interval,
		&card.Repetitions,
		&nextReviewTs,
		&lastReviewTs,
		&card.Version,
		&createdTs,
		&updatedTs,
	); err != nil {
		return nil, err
	}
	card.NextReview = fromTs(nextReviewTs)
	card.LastReview = fromNullTs(lastReviewTs)
	card.CreatedAt = fromTs(createdTs)
	card.UpdatedAt = fromTs(updatedTs)
	return &card, nil
}
