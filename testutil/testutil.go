// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/models"
)

// SetupTestDB creates a fresh SQLite database with the full schema.
// The database lives in the test's temp dir and is closed on cleanup.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file:test.db",
		DatabaseType: db.TypeSQLite,
		ClientOrigin: "http://localhost:3000",
		IdentitySalt: "test-identity-salt",
		// Tests vary the voter address through this header.
		TrustedProxyHeader: "X-Forwarded-For",
		Retention:          24 * time.Hour,
		SweepInterval:      time.Minute,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// NewPollID returns a fresh valid poll id.
func NewPollID(t *testing.T) string {
	t.Helper()

	id, err := auth.GenerateID(auth.PollIDBytes)
	if err != nil {
		t.Fatalf("Failed to generate poll id: %v", err)
	}
	return id
}

// ColorPoll is the definition used across scenario tests.
func ColorPoll(dedup models.DedupMode, multi bool) models.PollDefinition {
	return models.PollDefinition{
		Question: "Color?",
		Choices:  []string{"Red", "Blue", ""},
		Dedup:    dedup,
		MultiOK:  multi,
	}
}

// FindIndexEntry scans the metadata index for pollID.
func FindIndexEntry(t *testing.T, index *db.MetaIndex, pollID string) (models.IndexEntry, bool) {
	t.Helper()

	cursor := ""
	for {
		page, err := index.List(context.Background(), cursor, 50)
		if err != nil {
			t.Fatalf("Failed to list index: %v", err)
		}
		for _, entry := range page.Entries {
			if entry.PollID == pollID {
				return entry, true
			}
		}
		if page.Complete {
			return models.IndexEntry{}, false
		}
		cursor = page.Cursor
	}
}

// Session is a recording in-memory viewer session.
type Session struct {
	id       string
	identity string

	mu      sync.Mutex
	frames  []models.Outbound
	closed  bool
	reason  string
	sendErr error
}

// NewSession returns a session with the given id and voter identity.
func NewSession(id, identity string) *Session {
	return &Session{id: id, identity: identity}
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Identity() string { return s.identity }

// Send records the frame, or fails when the session is broken or closed.
func (s *Session) Send(_ context.Context, frame models.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendErr != nil {
		return s.sendErr
	}
	if s.closed {
		return errors.New("session closed")
	}
	s.frames = append(s.frames, frame)
	return nil
}

// Close marks the session closed with reason.
func (s *Session) Close(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.reason = reason
	return nil
}

// Break makes every further Send fail.
func (s *Session) Break() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = errors.New("connection reset")
}

// Frames returns a copy of every frame received so far.
func (s *Session) Frames() []models.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Outbound(nil), s.frames...)
}

// Last returns the most recent frame, or nil.
func (s *Session) Last() models.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Closed reports whether Close was called, and with which reason.
func (s *Session) Closed() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed, s.reason
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
