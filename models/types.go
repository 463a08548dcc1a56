// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"fmt"
	"strings"
	"time"
)

// Dedup modes
const (
	DedupIP   DedupMode = "ip"
	DedupNone DedupMode = "none"
)

// MaxChoices caps the number of non-empty choices a poll may carry.
const MaxChoices = 32

// DedupMode selects how repeat submissions from one voter are treated.
type DedupMode string

// Valid reports whether m is a known dedup mode.
func (m DedupMode) Valid() bool {
	return m == DedupIP || m == DedupNone
}

// Request types

// CreatePollRequest is the body of POST /api/poll.
type CreatePollRequest struct {
	Question string    `json:"question"`
	Choices  []string  `json:"choices"`
	Dedup    DedupMode `json:"dedup"`
	MultiOK  bool      `json:"multiOk"`
}

// Definition converts the request into a (not yet normalized) definition.
func (r CreatePollRequest) Definition() PollDefinition {
	return PollDefinition{
		Question: r.Question,
		Choices:  r.Choices,
		Dedup:    r.Dedup,
		MultiOK:  r.MultiOK,
	}
}

// Domain types

// PollDefinition is immutable once a poll has been created.
type PollDefinition struct {
	Question string    `json:"question"`
	Choices  []string  `json:"choices"`
	Dedup    DedupMode `json:"dedup"`
	MultiOK  bool      `json:"multiOk"`
}

// Normalize drops empty choices and validates what remains.
// The receiver is left untouched.
func (d PollDefinition) Normalize() (PollDefinition, error) {
	out := PollDefinition{
		Question: strings.TrimSpace(d.Question),
		Dedup:    d.Dedup,
		MultiOK:  d.MultiOK,
		Choices:  make([]string, 0, len(d.Choices)),
	}
	for _, choice := range d.Choices {
		if choice == "" {
			continue
		}
		out.Choices = append(out.Choices, choice)
	}

	if out.Question == "" {
		return PollDefinition{}, fmt.Errorf("%w: question is required", ErrInvalidDefinition)
	}
	if len(out.Choices) < 2 {
		return PollDefinition{}, fmt.Errorf("%w: at least 2 non-empty choices required", ErrInvalidDefinition)
	}
	if len(out.Choices) > MaxChoices {
		return PollDefinition{}, fmt.Errorf("%w: at most %d choices allowed", ErrInvalidDefinition, MaxChoices)
	}
	if !out.Dedup.Valid() {
		return PollDefinition{}, fmt.Errorf("%w: dedup must be \"ip\" or \"none\"", ErrInvalidDefinition)
	}

	return out, nil
}

// ChoiceCount is one entry of the aggregate counts, in choice order.
type ChoiceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// IndexEntry is a metadata index row: written at creation, deleted at expiry.
type IndexEntry struct {
	PollID     string         `json:"poll_id"`
	CreatedAt  time.Time      `json:"created_at"`
	Definition PollDefinition `json:"definition"`
}

// Expired reports whether the entry is at least retention old at now.
func (e IndexEntry) Expired(now time.Time, retention time.Duration) bool {
	return !e.CreatedAt.Add(retention).After(now)
}

// IndexPage is one page of a metadata index scan. Cursor resumes the scan
// after the last entry; Complete is set on the final page.
type IndexPage struct {
	Entries  []IndexEntry
	Cursor   string
	Complete bool
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
