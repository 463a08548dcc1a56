// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database types accepted by Open
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the configured database and verifies the connection.
// SQLite is limited to a single connection so concurrent actors queue
// instead of failing with "database is locked".
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypeSQLite, "":
		driver = "sqlite"
	case TypePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Column types are kept to the subset shared by SQLite and PostgreSQL.
const schema = `
-- Metadata index (read by the expiry sweeper)
CREATE TABLE IF NOT EXISTS poll_meta (
    id TEXT PRIMARY KEY,
    created_at BIGINT NOT NULL,
    definition TEXT NOT NULL
);

-- Actor-owned poll definitions
CREATE TABLE IF NOT EXISTS poll_state (
    id TEXT PRIMARY KEY,
    definition TEXT NOT NULL
);

-- Actor-owned vote ledger
CREATE TABLE IF NOT EXISTS vote_ledger (
    poll_id TEXT NOT NULL,
    choice_index INTEGER NOT NULL,
    voter TEXT NOT NULL,
    submissions INTEGER NOT NULL CHECK (submissions >= 1),
    PRIMARY KEY (poll_id, choice_index, voter)
);

CREATE INDEX IF NOT EXISTS idx_vote_ledger_poll_id ON vote_ledger(poll_id);
`
