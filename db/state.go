// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/models"
)

// StateStore is the durable storage owned by poll actors: one definition
// row per poll plus its ledger rows. Only the owning actor writes a poll's
// rows.
type StateStore struct {
	db *sql.DB
}

func NewStateStore(db *sql.DB) *StateStore {
	return &StateStore{db: db}
}

// SavePoll stores a freshly created definition.
func (s *StateStore) SavePoll(ctx context.Context, pollID string, def models.PollDefinition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("%w: encode definition: %w", models.ErrStorage, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO poll_state (id, definition)
		VALUES ($1, $2)
	`, pollID, string(payload))
	if err != nil {
		return fmt.Errorf("%w: save poll: %w", models.ErrStorage, err)
	}

	return nil
}

// LoadPoll reads a definition and its ledger rows. It returns
// models.ErrPollNotFound when no definition is stored.
func (s *StateStore) LoadPoll(ctx context.Context, pollID string) (models.PollDefinition, []ledger.Entry, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT definition FROM poll_state WHERE id = $1
	`, pollID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PollDefinition{}, nil, models.ErrPollNotFound
	}
	if err != nil {
		return models.PollDefinition{}, nil, fmt.Errorf("%w: load poll: %w", models.ErrStorage, err)
	}

	var def models.PollDefinition
	if err := json.Unmarshal([]byte(payload), &def); err != nil {
		return models.PollDefinition{}, nil, fmt.Errorf("%w: decode definition: %w", models.ErrStorage, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT choice_index, voter, submissions
		FROM vote_ledger
		WHERE poll_id = $1
	`, pollID)
	if err != nil {
		return models.PollDefinition{}, nil, fmt.Errorf("%w: load ledger: %w", models.ErrStorage, err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.Choice, &e.Voter, &e.Submissions); err != nil {
			return models.PollDefinition{}, nil, fmt.Errorf("%w: scan ledger row: %w", models.ErrStorage, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return models.PollDefinition{}, nil, fmt.Errorf("%w: load ledger: %w", models.ErrStorage, err)
	}

	return def, entries, nil
}

// SaveVotes upserts ledger rows for one submission in a single transaction.
func (s *StateStore) SaveVotes(ctx context.Context, pollID string, entries []ledger.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", models.ErrStorage, err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vote_ledger (poll_id, choice_index, voter, submissions)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (poll_id, choice_index, voter)
			DO UPDATE SET submissions = excluded.submissions
		`, pollID, e.Choice, e.Voter, e.Submissions)
		if err != nil {
			return fmt.Errorf("%w: save vote: %w", models.ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit votes: %w", models.ErrStorage, err)
	}

	return nil
}

// DeletePoll erases every row stored for pollID. Deleting an unknown poll
// is not an error.
func (s *StateStore) DeletePoll(ctx context.Context, pollID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", models.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vote_ledger WHERE poll_id = $1`, pollID); err != nil {
		return fmt.Errorf("%w: delete ledger: %w", models.ErrStorage, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_state WHERE id = $1`, pollID); err != nil {
		return fmt.Errorf("%w: delete poll: %w", models.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete: %w", models.ErrStorage, err)
	}

	return nil
}
