package storage

// The schema is portable between SQLite and PostgreSQL. Timestamps are unix seconds.
const schema = `
-- Decks form a tree per owner through parent_id.
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    parent_id TEXT REFERENCES decks(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decks_owner ON decks(owner_id);

-- Cards carry their SM-2 scheduling state. version guards concurrent reviews.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    context TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL,
    ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    next_review_ts BIGINT NOT NULL,
    last_review_ts BIGINT,
    version BIGINT NOT NULL DEFAULT 0,
    created_ts BIGINT NOT NULL,
    updated_ts BIGINT NOT NULL,
    UNIQUE (deck_id, content_hash)
);
CREATE INDEX IF NOT EXISTS idx_cards_deck_due ON cards(deck_id, repetitions, next_review_ts);

CREATE TABLE IF NOT EXISTS study_sessions (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    deck_id TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    started_ts BIGINT NOT NULL,
    ended_ts BIGINT
);
CREATE INDEX IF NOT EXISTS idx_sessions_owner ON study_sessions(owner_id, started_ts);

-- Reviews are append-only and outlive the cards they refer to.
CREATE TABLE IF NOT EXISTS reviews (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    card_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    quality INTEGER NOT NULL,
    previous_interval INTEGER NOT NULL,
    previous_ease_factor DOUBLE PRECISION NOT NULL,
    new_interval INTEGER NOT NULL,
    new_ease_factor DOUBLE PRECISION NOT NULL,
    reviewed_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reviews_owner ON reviews(owner_id, reviewed_ts);

-- Sources are markdown directories or git repositories imported into a deck.
CREATE TABLE IF NOT EXISTS sources (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    path TEXT NOT NULL,
    kind TEXT NOT NULL,
    last_scanned_ts BIGINT,
    UNIQUE (deck_id, path)
);
`
