// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package actor

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/models"
)

// countingStore holds no polls and counts every call made to it.
type countingStore struct {
	calls atomic.Int32
}

func (s *countingStore) SavePoll(context.Context, string, models.PollDefinition) error {
	s.calls.Add(1)
	return nil
}

func (s *countingStore) LoadPoll(context.Context, string) (models.PollDefinition, []ledger.Entry, error) {
	s.calls.Add(1)
	return models.PollDefinition{}, nil, models.ErrPollNotFound
}

func (s *countingStore) SaveVotes(context.Context, string, []ledger.Entry) error {
	s.calls.Add(1)
	return nil
}

func (s *countingStore) DeletePoll(context.Context, string) error {
	s.calls.Add(1)
	return nil
}

func TestStoppedActorRejectsQueuedMessages(t *testing.T) {
	store := &countingStore{}
	a := newActor("poll", Options{Store: store})

	replies := make([]chan result, 3)
	for i := range replies {
		replies[i] = make(chan result, 1)
		a.inbox <- envelope{msg: submitMsg{voter: "v", answers: []int{0}}, reply: replies[i]}
	}
	a.inbox <- envelope{msg: detachMsg{sessionID: "s"}}

	// Stop before the loop runs, so every message is still queued.
	a.stopOnce.Do(func() { close(a.quit) })
	a.start()
	<-a.done

	for i, reply := range replies {
		select {
		case res := <-reply:
			assert.ErrorIs(t, res.err, errStopped, "message %d", i)
		default:
			t.Fatalf("message %d was never answered", i)
		}
	}
	assert.Zero(t, store.calls.Load(), "a stopped actor must not touch storage")
	assert.Empty(t, a.inbox)
}

func TestRetiredActorIsReplacedOnNextCall(t *testing.T) {
	reg := NewRegistry(Options{Store: &countingStore{}})
	t.Cleanup(reg.Close)

	first := reg.actor("poll")
	reg.retire("poll", first)
	assert.False(t, first.stop(), "retire already stopped the actor")

	_, err := first.Snapshot(context.Background())
	require.ErrorIs(t, err, errStopped)

	second := reg.actor("poll")
	assert.NotSame(t, first, second)

	_, err = reg.Snapshot(context.Background(), "poll")
	assert.ErrorIs(t, err, models.ErrPollNotFound)
	assert.Equal(t, 0, reg.Len())
}
