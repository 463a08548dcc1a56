// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"

	"github.com/danielhkuo/livepoll/models"
)

// Entry is one persisted ledger row: how many times voter submitted choice.
type Entry struct {
	Choice      int
	Voter       string
	Submissions int
}

// Ledger maps each choice index to the voters recorded against it.
// The number of choices is fixed when the ledger is created and every
// recorded count is at least 1.
//
// A Ledger is not safe for concurrent use; it is owned by one actor.
type Ledger struct {
	choices []map[string]int
}

// New returns an empty ledger for numChoices choices.
func New(numChoices int) *Ledger {
	l := &Ledger{choices: make([]map[string]int, numChoices)}
	for i := range l.choices {
		l.choices[i] = make(map[string]int)
	}
	return l
}

// HasVoted reports whether voter appears against any choice.
func (l *Ledger) HasVoted(voter string) bool {
	for _, voters := range l.choices {
		if _, ok := voters[voter]; ok {
			return true
		}
	}
	return false
}

// Next computes the rows that recording one submission of each selected
// choice would produce, without modifying the ledger.
func (l *Ledger) Next(voter string, selections []int) ([]Entry, error) {
	entries := make([]Entry, 0, len(selections))
	for _, choice := range selections {
		if choice < 0 || choice >= len(l.choices) {
			return nil, fmt.Errorf("%w: choice %d out of range", models.ErrInvalidSelection, choice)
		}
		entries = append(entries, Entry{
			Choice:      choice,
			Voter:       voter,
			Submissions: l.choices[choice][voter] + 1,
		})
	}
	return entries, nil
}

// Apply writes rows into the ledger, replacing existing counters.
func (l *Ledger) Apply(entries []Entry) error {
	for _, e := range entries {
		if e.Choice < 0 || e.Choice >= len(l.choices) {
			return fmt.Errorf("ledger row for choice %d out of range", e.Choice)
		}
		if e.Submissions < 1 {
			return fmt.Errorf("ledger row for choice %d has count %d", e.Choice, e.Submissions)
		}
	}
	for _, e := range entries {
		l.choices[e.Choice][e.Voter] = e.Submissions
	}
	return nil
}

// Counts derives the aggregate counts in choice order. Under DedupIP a
// choice counts distinct voters, otherwise it sums their counters.
func (l *Ledger) Counts(labels []string, mode models.DedupMode) []models.ChoiceCount {
	counts := make([]models.ChoiceCount, len(l.choices))
	for i, voters := range l.choices {
		var name string
		if i < len(labels) {
			name = labels[i]
		}

		count := 0
		if mode == models.DedupIP {
			count = len(voters)
		} else {
			for _, n := range voters {
				count += n
			}
		}
		counts[i] = models.ChoiceCount{Name: name, Count: count}
	}
	return counts
}
