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

// The schema sticks to types and defaults both PostgreSQL and SQLite accept.
const schema = `
-- Allocations
CREATE TABLE IF NOT EXISTS allocation (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    creator_name TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT 'deferred-acceptance',
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    max_score INTEGER NOT NULL DEFAULT 5 CHECK (max_score >= 1),
    max_unwilling INTEGER NOT NULL DEFAULT 1 CHECK (max_unwilling >= 0),
    share_slug TEXT UNIQUE,
    closed_at TIMESTAMP,
    final_snapshot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_allocation_share_slug ON allocation(share_slug);
CREATE INDEX IF NOT EXISTS idx_allocation_status ON allocation(status);

-- Choices
CREATE TABLE IF NOT EXISTS choice (
    id TEXT PRIMARY KEY,
    allocation_id TEXT NOT NULL REFERENCES allocation(id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    min_size INTEGER NOT NULL CHECK (min_size >= 0),
    max_size INTEGER NOT NULL CHECK (max_size >= min_size),
    optional BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_choice_allocation_id ON choice(allocation_id);

-- Participants
CREATE TABLE IF NOT EXISTS participant (
    id TEXT PRIMARY KEY,
    allocation_id TEXT NOT NULL REFERENCES allocation(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    token TEXT NOT NULL UNIQUE,
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (allocation_id, name)
);

CREATE INDEX IF NOT EXISTS idx_participant_allocation_id ON participant(allocation_id);

-- Ratings
CREATE TABLE IF NOT EXISTS rating (
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    choice_id TEXT NOT NULL REFERENCES choice(id) ON DELETE CASCADE,
    score INTEGER NOT NULL CHECK (score >= 0),
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (participant_id, choice_id)
);

CREATE INDEX IF NOT EXISTS idx_rating_choice_id ON rating(choice_id);

-- Result Snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    allocation_id TEXT NOT NULL REFERENCES allocation(id) ON DELETE CASCADE,
    method TEXT NOT NULL,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    seed BIGINT NOT NULL,
    inputs_hash TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_allocation_id ON result_snapshot(allocation_id);
`
