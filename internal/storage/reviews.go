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

// FindReview describes a review query over [Since, Until).
type FindReview struct {
	OwnerID string
	Since   *time.Time
	Until   *time.Time
}

// ReviewTotals holds aggregate review counts.
type ReviewTotals struct {
	Total      int
	Successful int
}

// insertReview appends a review record. Reviews are never updated or deleted.
func (db *DB) insertReview(ctx context.Context, tx *sql.Tx, review *domain.Review) error {
	_, err := tx.ExecContext(ctx, db.rebind(`
		INSERT INTO reviews (id, owner_id, card_id, session_id, quality,
			previous_interval, previous_ease_factor, new_interval, new_ease_factor, reviewed_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		review.ID,
		review.OwnerID,
		review.CardID,
		review.SessionID,
		review.Quality,
		review.PreviousInterval,
		review.PreviousEaseFactor,
		review.NewInterval,
		review.NewEaseFactor,
		toTs(review.ReviewedAt),
	)
	if err != nil {
		return classify(err, fmt.Sprintf("failed to insert review for card %s", review.CardID))
	}
	return nil
}

// ListReviews retrieves reviews of an owner, oldest first.
func (db *DB) ListReviews(ctx context.Context, find *FindReview) ([]*domain.Review, error) {
	where, args := []string{"owner_id = ?"}, []any{find.OwnerID}
	if v := find.Since; v != nil {
		where, args = append(where, "reviewed_ts >= ?"), append(args, toTs(*v))
	}
	if v := find.Until; v != nil {
		where, args = append(where, "reviewed_ts < ?"), append(args, toTs(*v))
	}

	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT id, owner_id, card_id, session_id, quality,
			previous_interval, previous_ease_factor, new_interval, new_ease_factor, reviewed_ts
		FROM reviews
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY reviewed_ts ASC, id ASC
	`), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query reviews")
	}
	defer rows.Close()

	reviews := make([]*domain.Review, 0)
	for rows.Next() {
		var (
			review     domain.Review
			reviewedTs int64
		)
		if err := rows.Scan(
			&review.ID,
			&review.OwnerID,
			&review.CardID,
			&review.SessionID,
			&review.Quality,
			&review.PreviousInterval,
			&review.PreviousEaseFactor,
			&review.NewInterval,
			&review.NewEaseFactor,
			&reviewedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan review row")
		}
		review.ReviewedAt = fromTs(reviewedTs)
		reviews = append(reviews, &review)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate reviews")
	}
	return reviews, nil
}

// GetReviewTotals counts all reviews of ownerID and the successful ones among them.
func (db *DB) GetReviewTotals(ctx context.Context, ownerID string) (ReviewTotals, error) {
	var totals ReviewTotals
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN quality >= 3 THEN 1 ELSE 0 END), 0)
		FROM reviews WHERE owner_id = ?
	`), ownerID).Scan(&totals.Total, &totals.Successful)
	if err != nil {
		return ReviewTotals{}, errors.Wrap(err, "failed to count reviews")
	}
	return totals, nil
}
