// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielhkuo/livepoll/models"
)

// DefaultPageSize is used by List when limit is not positive.
const DefaultPageSize = 100

// MetaIndex maps poll ids to their creation time and definition snapshot.
// Rows are written once at creation and deleted once after expiry.
type MetaIndex struct {
	db *sql.DB
}

func NewMetaIndex(db *sql.DB) *MetaIndex {
	return &MetaIndex{db: db}
}

// Put inserts a new index entry.
func (m *MetaIndex) Put(ctx context.Context, entry models.IndexEntry) error {
	payload, err := json.Marshal(entry.Definition)
	if err != nil {
		return fmt.Errorf("%w: encode definition: %w", models.ErrStorage, err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO poll_meta (id, created_at, definition)
		VALUES ($1, $2, $3)
	`, entry.PollID, entry.CreatedAt.Unix(), string(payload))
	if err != nil {
		return fmt.Errorf("%w: insert index entry: %w", models.ErrStorage, err)
	}

	return nil
}

// List returns up to limit entries ordered by poll id, starting after the
// position encoded in cursor (empty cursor starts from the beginning).
// Pagination is keyset-based, so rows deleted behind the cursor never
// cause entries to be skipped.
func (m *MetaIndex) List(ctx context.Context, cursor string, limit int) (models.IndexPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	after, err := decodeCursor(cursor)
	if err != nil {
		return models.IndexPage{}, err
	}

	// One extra row tells us whether another page exists.
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, created_at, definition
		FROM poll_meta
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, after, limit+1)
	if err != nil {
		return models.IndexPage{}, fmt.Errorf("%w: list index: %w", models.ErrStorage, err)
	}
	defer rows.Close()

	page := models.IndexPage{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return models.IndexPage{}, err
		}
		page.Entries = append(page.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return models.IndexPage{}, fmt.Errorf("%w: list index: %w", models.ErrStorage, err)
	}

	if len(page.Entries) <= limit {
		page.Complete = true
	} else {
		page.Entries = page.Entries[:limit]
	}
	if n := len(page.Entries); n > 0 {
		page.Cursor = encodeCursor(page.Entries[n-1].PollID)
	}

	return page, nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (m *MetaIndex) Delete(ctx context.Context, pollID string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM poll_meta WHERE id = $1`, pollID); err != nil {
		return fmt.Errorf("%w: delete index entry: %w", models.ErrStorage, err)
	}
	return nil
}

func scanEntry(rows *sql.Rows) (models.IndexEntry, error) {
	var (
		entry     models.IndexEntry
		createdAt int64
		payload   string
	)
	if err := rows.Scan(&entry.PollID, &createdAt, &payload); err != nil {
		return models.IndexEntry{}, fmt.Errorf("%w: scan index entry: %w", models.ErrStorage, err)
	}
	if err := json.Unmarshal([]byte(payload), &entry.Definition); err != nil {
		return models.IndexEntry{}, fmt.Errorf("%w: decode definition: %w", models.ErrStorage, err)
	}
	entry.CreatedAt = time.Unix(createdAt, 0)

	return entry, nil
}

func encodeCursor(lastID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(lastID))
}

func decodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid index cursor: %w", err)
	}
	return string(b), nil
}
