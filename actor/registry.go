// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package actor

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/danielhkuo/livepoll/models"
)

// ErrClosed is returned by a Registry after Close.
var ErrClosed = errors.New("registry closed")

// Registry maps poll ids to their actors, starting each on first use.
// Lookups are lock-free; at most one actor runs per poll id.
type Registry struct {
	opts   Options
	actors *xsync.Map[string, *Actor]
	closed atomic.Bool
}

// NewRegistry returns an empty Registry whose actors share opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:   opts.withDefaults(),
		actors: xsync.NewMap[string, *Actor](),
	}
}

// Len reports the number of running actors.
func (r *Registry) Len() int {
	return r.actors.Size()
}

func (r *Registry) actor(pollID string) *Actor {
	if a, ok := r.actors.Load(pollID); ok {
		return a
	}

	a := newActor(pollID, r.opts)
	actual, loaded := r.actors.LoadOrStore(pollID, a)
	if !loaded {
		a.start()
		r.opts.Metrics.ActorStarted()
	}
	return actual
}

// call runs fn against the poll's actor, retrying once on a fresh actor when
// the one it reached was retired concurrently. Actors that found no poll are
// retired so lookups of unknown ids do not accumulate.
func (r *Registry) call(pollID string, fn func(*Actor) error) error {
	for range 2 {
		if r.closed.Load() {
			return ErrClosed
		}
		a := r.actor(pollID)
		err := fn(a)
		if errors.Is(err, models.ErrPollNotFound) {
			r.retire(pollID, a)
		}
		if !errors.Is(err, errStopped) {
			return err
		}
	}
	return models.ErrPollNotFound
}

// retire removes a from the registry if it is still the registered actor
// for pollID, then stops it.
func (r *Registry) retire(pollID string, a *Actor) {
	r.actors.Compute(pollID, func(old *Actor, loaded bool) (*Actor, xsync.ComputeOp) {
		if loaded && old == a {
			return nil, xsync.DeleteOp
		}
		return old, xsync.CancelOp
	})
	if a.stop() {
		r.opts.Metrics.ActorStopped()
	}
}

// Create initializes a new poll under pollID. The definition is validated
// and persisted before Create returns.
func (r *Registry) Create(ctx context.Context, pollID string, def models.PollDefinition) (string, error) {
	err := r.call(pollID, func(a *Actor) error {
		return a.Create(ctx, def)
	})
	if err != nil {
		return "", err
	}
	return pollID, nil
}

// Attach registers s with the poll and sends it the full state. Returns
// ErrPollNotFound when the poll exists neither in memory nor in storage.
func (r *Registry) Attach(ctx context.Context, pollID string, s Session) error {
	return r.call(pollID, func(a *Actor) error {
		return a.Attach(ctx, s)
	})
}

// Submit records a ballot for voter. On success every attached session
// receives the new counts.
func (r *Registry) Submit(ctx context.Context, pollID, voter string, answers []int) error {
	return r.call(pollID, func(a *Actor) error {
		return a.Submit(ctx, voter, answers)
	})
}

// Detach removes a session asynchronously. It never starts an actor.
func (r *Registry) Detach(pollID, sessionID string) {
	if a, ok := r.actors.Load(pollID); ok {
		a.Detach(sessionID)
	}
}

// Snapshot returns the poll's full state.
func (r *Registry) Snapshot(ctx context.Context, pollID string) (models.FullState, error) {
	var state models.FullState
	err := r.call(pollID, func(a *Actor) error {
		var err error
		state, err = a.Snapshot(ctx)
		return err
	})
	return state, err
}

// Discard notifies and closes every session of the poll, erases its
// storage and retires its actor. Discarding an unknown poll succeeds.
func (r *Registry) Discard(ctx context.Context, pollID string) error {
	return r.call(pollID, func(a *Actor) error {
		if err := a.Discard(ctx); err != nil {
			return err
		}
		r.retire(pollID, a)
		return nil
	})
}

// Close stops every actor. Further calls return ErrClosed.
func (r *Registry) Close() {
	if r.closed.Swap(true) {
		return
	}
	r.actors.Range(func(pollID string, a *Actor) bool {
		r.retire(pollID, a)
		return true
	})
}
