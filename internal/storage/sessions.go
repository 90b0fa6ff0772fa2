package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// CreateSession inserts a new study session.
func (db *DB) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO study_sessions (id, owner_id, deck_id, started_ts, ended_ts)
		VALUES (?, ?, ?, ?, ?)
	`),
		session.ID,
		session.OwnerID,
		session.DeckID,
		toTs(session.StartedAt),
		nullTs(session.EndedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert session %s", session.ID)
	}
	return nil
}

// GetSession retrieves a session owned by ownerID.
func (db *DB) GetSession(ctx context.Context, ownerID, sessionID string) (*domain.Session, error) {
	var (
		session   domain.Session
		startedTs int64
		endedTs   sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT id, owner_id, deck_id, started_ts, ended_ts
		FROM study_sessions WHERE id = ? AND owner_id = ?
	`), sessionID, ownerID).Scan(&session.ID, &session.OwnerID, &session.DeckID, &startedTs, &endedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "session %s", sessionID)
		}
		return nil, errors.Wrapf(err, "failed to find session %s", sessionID)
	}
	session.StartedAt = fromTs(startedTs)
	session.EndedAt = fromNullTs(endedTs)
	return &session, nil
}

// EndSession closes a session. Ending an already closed session keeps the first end time.
func (db *DB) EndSession(ctx context.Context, ownerID, sessionID string, now time.Time) (*domain.Session, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE study_sessions
		SET ended_ts = COALESCE(ended_ts, ?)
		WHERE id = ? AND owner_id = ?
	`), toTs(now), sessionID, ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to end session %s", sessionID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return nil, errors.Wrapf(ErrNotFound, "session %s", sessionID)
	}
	return db.GetSession(ctx, ownerID, sessionID)
}

// ListSessionStarts returns the start times of every session of ownerID, newest first.
func (db *DB) ListSessionStarts(ctx context.Context, ownerID string) ([]time.Time, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT started_ts FROM study_sessions
		WHERE owner_id = ?
		ORDER BY started_ts DESC
	`), ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list session starts")
	}
	defer rows.Close()

	starts := make([]time.Time, 0)
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, errors.Wrap(err, "failed to scan session start")
		}
		starts = append(starts, fromTs(ts))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate session starts")
	}
	return starts, nil
}
