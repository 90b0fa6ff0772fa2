package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// Source kinds.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source is a markdown directory or git repository imported into a deck.
type Source struct {
	ID          string     `json:"id"`
	DeckID      string     `json:"deckId"`
	Path        string     `json:"path"`
	Kind        string     `json:"kind"`
	LastScanned *time.Time `json:"lastScanned,omitempty"`
}

// InsertSource registers a new source for a deck.
func (db *DB) InsertSource(ctx context.Context, source *Source) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO sources (id, deck_id, path, kind, last_scanned_ts)
		VALUES (?, ?, ?, ?, ?)
	`), source.ID, source.DeckID, source.Path, source.Kind, nullTs(source.LastScanned))
	if err != nil {
		return errors.Wrapf(err, "failed to insert source %s", source.Path)
	}
	return nil
}

// FindSource retrieves the source of a deck by its path. It returns nil, nil if absent.
func (db *DB) FindSource(ctx context.Context, deckID, path string) (*Source, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT id, deck_id, path, kind, last_scanned_ts
		FROM sources WHERE deck_id = ? AND path = ?
	`), deckID, path)

	s, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to find source by path %s", path)
	}
	return s, nil
}

// ListSources retrieves the sources of every deck owned by ownerID.
func (db *DB) ListSources(ctx context.Context, ownerID string) ([]*Source, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT s.id, s.deck_id, s.path, s.kind, s.last_scanned_ts
		FROM sources s JOIN decks d ON d.id = s.deck_id
		WHERE d.owner_id = ?
		ORDER BY s.path ASC
	`), ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sources")
	}
	defer rows.Close()

	sources := make([]*Source, 0)
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan source row")
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate sources")
	}
	return sources, nil
}

// UpdateSourceLastScanned records when a source was last imported.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID string, now time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE sources SET last_scanned_ts = ? WHERE id = ?
	`), toTs(now), sourceID)
	if err != nil {
		return errors.Wrapf(err, "failed to update last scanned for source %s", sourceID)
	}
	return nil
}

func scanSource(s scanner) (*Source, error) {
	var (
		source  Source
		scanned sql.NullInt64
	)
	if err := s.Scan(&source.ID, &source.DeckID, &source.Path, &source.Kind, &scanned); err != nil {
		return nil, err
	}
	source.LastScanned = fromNullTs(scanned)
	return &source, nil
}
