// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    user_id TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_poll_user_id ON poll(user_id);

-- Options
CREATE TABLE IF NOT EXISTS option (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_option_poll_id ON option(poll_id);

-- Votes: the UNIQUE (poll_id, user_id) constraint is the one-vote-per-user
-- invariant. Duplicate detection relies on it entirely; there is no
-- application-level check.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL REFERENCES option(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (poll_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_option_id ON vote(option_id);
CREATE INDEX IF NOT EXISTS idx_vote_poll_id ON vote(poll_id);

-- Likes: same one-per-user rule as votes
CREATE TABLE IF NOT EXISTS poll_like (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    UNIQUE (poll_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_poll_like_poll_id ON poll_like(poll_id);
`
