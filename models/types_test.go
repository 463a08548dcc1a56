// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		def         PollDefinition
		wantChoices []string
		wantErr     bool
	}{
		{
			name:        "drops empty choices",
			def:         PollDefinition{Question: "Color?", Choices: []string{"Red", "Blue", ""}, Dedup: DedupIP},
			wantChoices: []string{"Red", "Blue"},
		},
		{
			name:    "too few after filtering",
			def:     PollDefinition{Question: "Color?", Choices: []string{"Red", "", ""}, Dedup: DedupNone},
			wantErr: true,
		},
		{
			name:    "missing question",
			def:     PollDefinition{Question: "  ", Choices: []string{"a", "b"}, Dedup: DedupNone},
			wantErr: true,
		},
		{
			name:    "unknown dedup",
			def:     PollDefinition{Question: "q", Choices: []string{"a", "b"}, Dedup: "cookie"},
			wantErr: true,
		},
		{
			name:    "too many choices",
			def:     PollDefinition{Question: "q", Choices: make33(), Dedup: DedupNone},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.def.Normalize()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDefinition) {
					t.Fatalf("Normalize() error = %v, want ErrInvalidDefinition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if !reflect.DeepEqual(got.Choices, tt.wantChoices) {
				t.Errorf("Normalize() choices = %v, want %v", got.Choices, tt.wantChoices)
			}
		})
	}
}

func make33() []string {
	out := make([]string, MaxChoices+1)
	for i := range out {
		out[i] = string(rune('a' + i%26))
	}
	return out
}

func TestIndexEntryExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	day := 24 * time.Hour

	old := IndexEntry{CreatedAt: now.Add(-90000 * time.Second)}
	if !old.Expired(now, day) {
		t.Error("entry created 90000s ago should be expired")
	}

	exact := IndexEntry{CreatedAt: now.Add(-day)}
	if !exact.Expired(now, day) {
		t.Error("entry exactly at the retention boundary should be expired")
	}

	fresh := IndexEntry{CreatedAt: now.Add(-time.Hour)}
	if fresh.Expired(now, day) {
		t.Error("entry created an hour ago should not be expired")
	}
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Inbound
		wantErr bool
	}{
		{"identify", `{"id":"abc"}`, Identify{ID: "abc"}, false},
		{"vote", `{"answers":[0,2]}`, Vote{Answers: []int{0, 2}}, false},
		{"id wins over answers", `{"id":"abc","answers":[1]}`, Identify{ID: "abc"}, false},
		{"empty object", `{}`, nil, true},
		{"null answers", `{"answers":null}`, nil, true},
		{"bad answers", `{"answers":["x"]}`, nil, true},
		{"not json", `hello`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.frame))
			if tt.wantErr {
				if !errors.Is(err, ErrTransport) {
					t.Fatalf("DecodeInbound() error = %v, want ErrTransport", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeInbound() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeInbound() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage(ErrPollNotFound); got != "Poll not found" {
		t.Errorf("unexpected message %q", got)
	}
	if got := ErrorMessage(errors.New("boom")); got != "Internal error" {
		t.Errorf("unexpected message %q", got)
	}
}
