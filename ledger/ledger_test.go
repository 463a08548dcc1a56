// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/livepoll/models"
)

func record(t *testing.T, l *Ledger, voter string, selections ...int) {
	t.Helper()
	rows, err := l.Next(voter, selections)
	require.NoError(t, err)
	require.NoError(t, l.Apply(rows))
}

func submissions(l *Ledger, choice int, voter string) int {
	return l.choices[choice][voter]
}

// entries lists every row, as the state store would hold them.
func entries(l *Ledger) []Entry {
	var out []Entry
	for i, voters := range l.choices {
		for voter, n := range voters {
			out = append(out, Entry{Choice: i, Voter: voter, Submissions: n})
		}
	}
	return out
}

func TestNewLedgerCountsZero(t *testing.T) {
	l := New(3)

	counts := l.Counts([]string{"a", "b", "c"}, models.DedupIP)
	assert.Equal(t, []models.ChoiceCount{{Name: "a", Count: 0}, {Name: "b", Count: 0}, {Name: "c", Count: 0}}, counts)
	assert.Empty(t, entries(l))
}

func TestNextDoesNotMutate(t *testing.T) {
	l := New(2)

	rows, err := l.Next("A", []int{1})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Choice: 1, Voter: "A", Submissions: 1}}, rows)
	assert.False(t, l.HasVoted("A"))
	assert.Equal(t, 0, submissions(l, 1, "A"))
}

func TestNextRejectsOutOfRange(t *testing.T) {
	l := New(2)

	_, err := l.Next("A", []int{2})
	assert.ErrorIs(t, err, models.ErrInvalidSelection)

	_, err = l.Next("A", []int{-1})
	assert.ErrorIs(t, err, models.ErrInvalidSelection)
}

func TestCountsDedupNoneSumsSubmissions(t *testing.T) {
	l := New(2)
	record(t, l, "A", 0)
	record(t, l, "A", 0)
	record(t, l, "B", 0, 1)

	counts := l.Counts([]string{"Red", "Blue"}, models.DedupNone)
	assert.Equal(t, []models.ChoiceCount{{Name: "Red", Count: 3}, {Name: "Blue", Count: 1}}, counts)
	assert.Equal(t, 2, submissions(l, 0, "A"))
}

func TestCountsDedupIPCountsVoters(t *testing.T) {
	l := New(2)
	record(t, l, "A", 0)
	record(t, l, "A", 0)
	record(t, l, "B", 0)

	counts := l.Counts([]string{"Red", "Blue"}, models.DedupIP)
	assert.Equal(t, []models.ChoiceCount{{Name: "Red", Count: 2}, {Name: "Blue", Count: 0}}, counts)
}

func TestHasVotedIsPollWide(t *testing.T) {
	l := New(3)
	record(t, l, "A", 2)

	assert.True(t, l.HasVoted("A"))
	assert.False(t, l.HasVoted("B"))
}

func TestApplyValidatesRows(t *testing.T) {
	l := New(2)

	err := l.Apply([]Entry{{Choice: 0, Voter: "A", Submissions: 1}, {Choice: 5, Voter: "A", Submissions: 1}})
	require.Error(t, err)
	assert.False(t, l.HasVoted("A"), "a rejected batch must not be partially applied")

	err = l.Apply([]Entry{{Choice: 0, Voter: "A", Submissions: 0}})
	require.Error(t, err)
}

func TestEntriesRoundTrip(t *testing.T) {
	l := New(2)
	record(t, l, "A", 0, 1)
	record(t, l, "B", 1)

	restored := New(2)
	require.NoError(t, restored.Apply(entries(l)))
	assert.Equal(t, l.Counts(nil, models.DedupNone), restored.Counts(nil, models.DedupNone))
	assert.ElementsMatch(t, entries(l), entries(restored))
}
