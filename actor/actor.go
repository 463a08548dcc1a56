// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/models"
)

// Defaults for Options
const (
	DefaultStorageTimeout = 5 * time.Second
	DefaultSendTimeout    = 5 * time.Second
	DefaultMailboxSize    = 64
)

// ExpiredNotice is the error text sent to viewers of a discarded poll.
const ExpiredNotice = "Poll expired"

// errStopped is returned for messages that reach an actor after it stopped.
var errStopped = errors.New("actor stopped")

// Session is a connected viewer as seen by the actor.
type Session interface {
	ID() string
	Identity() string
	Send(ctx context.Context, frame models.Outbound) error
	Close(reason string) error
}

// Store is the actor's durable storage.
type Store interface {
	SavePoll(ctx context.Context, pollID string, def models.PollDefinition) error
	LoadPoll(ctx context.Context, pollID string) (models.PollDefinition, []ledger.Entry, error)
	SaveVotes(ctx context.Context, pollID string, entries []ledger.Entry) error
	DeletePoll(ctx context.Context, pollID string) error
}

// Options configures actors created by a Registry.
type Options struct {
	Store          Store
	Logger         *slog.Logger
	Metrics        *metrics.Collector
	StorageTimeout time.Duration
	SendTimeout    time.Duration
	MailboxSize    int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.StorageTimeout <= 0 {
		o.StorageTimeout = DefaultStorageTimeout
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	if o.MailboxSize <= 0 {
		o.MailboxSize = DefaultMailboxSize
	}
	return o
}

// Messages handled by the run loop
type (
	createMsg struct{ def models.PollDefinition }
	attachMsg struct{ session Session }
	submitMsg struct {
		voter   string
		answers []int
	}
	detachMsg   struct{ sessionID string }
	discardMsg  struct{}
	snapshotMsg struct{}
)

type envelope struct {
	msg   any
	reply chan result
}

type result struct {
	state models.FullState
	err   error
}

// Actor owns one poll. All of its state is confined to the run goroutine,
// which handles one message at a time, storage writes included.
type Actor struct {
	pollID string
	opts   Options
	logger *slog.Logger

	inbox    chan envelope
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Owned by run.
	def      *models.PollDefinition
	ledger   *ledger.Ledger
	sessions map[string]Session
}

func newActor(pollID string, opts Options) *Actor {
	opts = opts.withDefaults()
	return &Actor{
		pollID:   pollID,
		opts:     opts,
		logger:   opts.Logger.With("poll_id", pollID),
		inbox:    make(chan envelope, opts.MailboxSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		sessions: make(map[string]Session),
	}
}

func (a *Actor) start() {
	go a.run()
}

// stop ends the run loop, closes any attached sessions and waits for exit.
// Reports whether this call initiated the stop.
func (a *Actor) stop() bool {
	initiated := false
	a.stopOnce.Do(func() {
		close(a.quit)
		initiated = true
	})
	<-a.done
	return initiated
}

func (a *Actor) run() {
	defer close(a.done)
	for {
		select {
		case env := <-a.inbox:
			if a.stopping() {
				a.reject(env)
				continue
			}
			a.handle(env)
		case <-a.quit:
			a.drain()
			a.dropSessions("server shutting down")
			return
		}
	}
}

func (a *Actor) stopping() bool {
	select {
	case <-a.quit:
		return true
	default:
		return false
	}
}

// drain answers messages still queued at stop with errStopped, so callers
// retry against the poll's next actor instead of this one.
func (a *Actor) drain() {
	for {
		select {
		case env := <-a.inbox:
			a.reject(env)
		default:
			return
		}
	}
}

func (a *Actor) reject(env envelope) {
	if env.reply != nil {
		env.reply <- result{err: errStopped}
	}
}

func (a *Actor) handle(env envelope) {
	var res result

	switch m := env.msg.(type) {
	case createMsg:
		res.err = a.create(m.def)
	case attachMsg:
		res.err = a.attach(m.session)
	case submitMsg:
		res.err = a.submit(m.voter, m.answers)
	case detachMsg:
		a.detach(m.sessionID)
	case discardMsg:
		res.err = a.discard()
	case snapshotMsg:
		res.state, res.err = a.snapshot()
	default:
		res.err = fmt.Errorf("unknown actor message %T", env.msg)
	}

	if env.reply != nil {
		env.reply <- res
	}
}

// ask enqueues msg and waits for its result. Once enqueued the message runs
// to completion even if ctx ends first.
func (a *Actor) ask(ctx context.Context, msg any) (result, error) {
	reply := make(chan result, 1)
	select {
	case a.inbox <- envelope{msg: msg, reply: reply}:
	case <-a.quit:
		return result{}, errStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, res.err
	case <-a.done:
		select {
		case res := <-reply:
			return res, res.err
		default:
			return result{}, errStopped
		}
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// tell enqueues msg without waiting for it to be handled.
func (a *Actor) tell(msg any) {
	select {
	case a.inbox <- envelope{msg: msg}:
	case <-a.quit:
	}
}

// Create initializes the poll and persists its definition.
func (a *Actor) Create(ctx context.Context, def models.PollDefinition) error {
	_, err := a.ask(ctx, createMsg{def: def})
	return err
}

// Attach registers s and sends it the full current state.
func (a *Actor) Attach(ctx context.Context, s Session) error {
	_, err := a.ask(ctx, attachMsg{session: s})
	return err
}

// Submit records a ballot from voter and broadcasts the new counts.
func (a *Actor) Submit(ctx context.Context, voter string, answers []int) error {
	_, err := a.ask(ctx, submitMsg{voter: voter, answers: answers})
	return err
}

// Detach removes a session at the actor's next opportunity.
func (a *Actor) Detach(sessionID string) {
	a.tell(detachMsg{sessionID: sessionID})
}

// Discard closes every session and erases the poll. Idempotent.
func (a *Actor) Discard(ctx context.Context) error {
	_, err := a.ask(ctx, discardMsg{})
	return err
}

// Snapshot returns the poll's full current state.
func (a *Actor) Snapshot(ctx context.Context) (models.FullState, error) {
	res, err := a.ask(ctx, snapshotMsg{})
	return res.state, err
}

func (a *Actor) storageContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.opts.StorageTimeout)
}

func (a *Actor) create(def models.PollDefinition) error {
	if a.def != nil {
		return models.ErrPollExists
	}

	norm, err := def.Normalize()
	if err != nil {
		return err
	}

	ctx, cancel := a.storageContext()
	defer cancel()
	if err := a.opts.Store.SavePoll(ctx, a.pollID, norm); err != nil {
		a.logger.Error("failed to persist poll", "error", err)
		return err
	}

	a.def = &norm
	a.ledger = ledger.New(len(norm.Choices))
	a.opts.Metrics.PollCreated()
	a.logger.Info("poll created", "choices", len(norm.Choices), "dedup", norm.Dedup, "multi_ok", norm.MultiOK)

	return nil
}

// load recovers the definition and ledger from storage when they are not
// in memory yet, e.g. after a process restart.
func (a *Actor) load() error {
	if a.def != nil {
		return nil
	}

	ctx, cancel := a.storageContext()
	defer cancel()

	def, entries, err := a.opts.Store.LoadPoll(ctx, a.pollID)
	if err != nil {
		return err
	}

	l := ledger.New(len(def.Choices))
	if err := l.Apply(entries); err != nil {
		return fmt.Errorf("%w: stored ledger: %w", models.ErrStorage, err)
	}

	a.def = &def
	a.ledger = l
	a.logger.Debug("poll state recovered", "ledger_rows", len(entries))

	return nil
}

func (a *Actor) counts() []models.ChoiceCount {
	return a.ledger.Counts(a.def.Choices, a.def.Dedup)
}

func (a *Actor) attach(s Session) error {
	if err := a.load(); err != nil {
		return err
	}

	if _, ok := a.sessions[s.ID()]; !ok {
		a.opts.Metrics.SessionAttached()
	}
	a.sessions[s.ID()] = s

	state := models.NewFullState(*a.def, a.counts())
	if err := a.send(s, state); err != nil {
		a.evict(s.ID())
		return fmt.Errorf("%w: %w", models.ErrTransport, err)
	}

	a.logger.Debug("session attached", "session_id", s.ID(), "sessions", len(a.sessions))
	return nil
}

func (a *Actor) submit(voter string, answers []int) error {
	if err := a.load(); err != nil {
		a.rejected(err)
		return err
	}

	if a.def.Dedup == models.DedupIP && a.ledger.HasVoted(voter) {
		a.rejected(models.ErrDuplicateVoter)
		return models.ErrDuplicateVoter
	}

	selections, err := ballot(answers, a.def.MultiOK)
	if err != nil {
		a.rejected(err)
		return err
	}

	rows, err := a.ledger.Next(voter, selections)
	if err != nil {
		a.rejected(err)
		return err
	}

	// Durability precedes visibility.
	ctx, cancel := a.storageContext()
	defer cancel()
	if err := a.opts.Store.SaveVotes(ctx, a.pollID, rows); err != nil {
		a.logger.Error("failed to persist vote", "error", err)
		a.rejected(err)
		return err
	}

	if err := a.ledger.Apply(rows); err != nil {
		return err
	}

	a.opts.Metrics.VoteAccepted(string(a.def.Dedup))
	a.broadcast(models.CountUpdate{Counts: a.counts()})

	return nil
}

// ballot applies the selection policy: a single-select poll honors only the
// first index, a multi-select poll counts each distinct index once.
func ballot(answers []int, multiOK bool) ([]int, error) {
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no answers", models.ErrInvalidSelection)
	}
	if !multiOK {
		return answers[:1], nil
	}

	seen := make(map[int]struct{}, len(answers))
	out := make([]int, 0, len(answers))
	for _, idx := range answers {
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out, nil
}

func (a *Actor) rejected(err error) {
	reason := metrics.ReasonStorage
	switch {
	case errors.Is(err, models.ErrPollNotFound):
		reason = metrics.ReasonNotFound
	case errors.Is(err, models.ErrDuplicateVoter):
		reason = metrics.ReasonDuplicate
	case errors.Is(err, models.ErrInvalidSelection):
		reason = metrics.ReasonInvalid
	}
	a.opts.Metrics.VoteRejected(reason)
}

func (a *Actor) send(s Session, frame models.Outbound) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.SendTimeout)
	defer cancel()
	return s.Send(ctx, frame)
}

// broadcast is best-effort: sessions whose send fails are evicted.
func (a *Actor) broadcast(frame models.Outbound) {
	for id, s := range a.sessions {
		if err := a.send(s, frame); err != nil {
			a.logger.Debug("evicting session after failed send", "session_id", id, "error", err)
			a.evict(id)
		}
	}
}

func (a *Actor) evict(sessionID string) {
	s, ok := a.sessions[sessionID]
	if !ok {
		return
	}
	delete(a.sessions, sessionID)
	_ = s.Close("send failed")
	a.opts.Metrics.SessionEvicted()
	a.opts.Metrics.SessionsDetached(1)
}

func (a *Actor) detach(sessionID string) {
	if _, ok := a.sessions[sessionID]; !ok {
		return
	}
	delete(a.sessions, sessionID)
	a.opts.Metrics.SessionsDetached(1)
	a.logger.Debug("session detached", "session_id", sessionID, "sessions", len(a.sessions))
}

func (a *Actor) discard() error {
	closed := len(a.sessions)
	for id, s := range a.sessions {
		_ = a.send(s, models.ErrorFrame{Error: ExpiredNotice})
		_ = s.Close("poll expired")
		delete(a.sessions, id)
	}
	a.opts.Metrics.SessionsDetached(closed)

	a.def = nil
	a.ledger = nil

	ctx, cancel := a.storageContext()
	defer cancel()
	if err := a.opts.Store.DeletePoll(ctx, a.pollID); err != nil {
		a.logger.Error("failed to erase poll state", "error", err)
		return err
	}

	a.logger.Info("poll discarded", "sessions_closed", closed)
	return nil
}

func (a *Actor) snapshot() (models.FullState, error) {
	if err := a.load(); err != nil {
		return models.FullState{}, err
	}
	return models.NewFullState(*a.def, a.counts()), nil
}

// dropSessions closes sessions without notice when the actor stops.
func (a *Actor) dropSessions(reason string) {
	n := len(a.sessions)
	for id, s := range a.sessions {
		_ = s.Close(reason)
		delete(a.sessions, id)
	}
	a.opts.Metrics.SessionsDetached(n)
}
