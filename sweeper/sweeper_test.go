// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sweeper_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/livepoll/actor"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/sweeper"
	"github.com/danielhkuo/livepoll/testutil"
)

var epoch = time.Unix(1_700_000_000, 0)

// recordingDiscarder records discarded ids and fails those listed in fail.
type recordingDiscarder struct {
	mu        sync.Mutex
	discarded []string
	fail      map[string]bool
}

func (d *recordingDiscarder) Discard(_ context.Context, pollID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[pollID] {
		return fmt.Errorf("%w: unavailable", models.ErrStorage)
	}
	d.discarded = append(d.discarded, pollID)
	return nil
}

func putEntry(t *testing.T, index *db.MetaIndex, pollID string, created time.Time) {
	t.Helper()
	require.NoError(t, index.Put(context.Background(), models.IndexEntry{
		PollID:     pollID,
		CreatedAt:  created,
		Definition: testutil.ColorPoll(models.DedupIP, false),
	}))
}

func indexIDs(t *testing.T, index *db.MetaIndex) []string {
	t.Helper()
	page, err := index.List(context.Background(), "", 1000)
	require.NoError(t, err)
	ids := make([]string, 0, len(page.Entries))
	for _, e := range page.Entries {
		ids = append(ids, e.PollID)
	}
	return ids
}

func TestRunOnceDiscardsOnlyExpired(t *testing.T) {
	index := db.NewMetaIndex(testutil.SetupTestDB(t))
	old := testutil.NewPollID(t)
	fresh := testutil.NewPollID(t)
	putEntry(t, index, old, epoch)
	putEntry(t, index, fresh, epoch.Add(89_000*time.Second))

	discarder := &recordingDiscarder{}
	s := sweeper.Sweeper{
		Index:     index,
		Discarder: discarder,
		Retention: 24 * time.Hour,
		Clock:     func() time.Time { return epoch.Add(90_000 * time.Second) },
	}

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sweeper.Result{
		Scanned:    2,
		Discarded:  1,
		NextExpiry: epoch.Add(89_000*time.Second + 24*time.Hour),
	}, res)
	assert.Equal(t, []string{old}, discarder.discarded)
	assert.Equal(t, []string{fresh}, indexIDs(t, index))
}

func TestResultSummary(t *testing.T) {
	now := epoch

	live := sweeper.Result{Scanned: 1234, Discarded: 3, Failed: 1, NextExpiry: now.Add(3*time.Hour + time.Minute)}
	assert.Equal(t, "1,234 scanned, 3 discarded, 1 failed, next expiry 3 hours from now", live.Summary(now))

	assert.Equal(t, "0 scanned, 0 discarded, 0 failed, no live polls", sweeper.Result{}.Summary(now))
}

func TestRetentionBoundaryIsInclusive(t *testing.T) {
	index := db.NewMetaIndex(testutil.SetupTestDB(t))
	pollID := testutil.NewPollID(t)
	putEntry(t, index, pollID, epoch)

	s := sweeper.Sweeper{
		Index:     index,
		Discarder: &recordingDiscarder{},
		Retention: time.Hour,
		Clock:     func() time.Time { return epoch.Add(time.Hour) },
	}

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Discarded)
}

func TestFailedDiscardIsRetried(t *testing.T) {
	index := db.NewMetaIndex(testutil.SetupTestDB(t))
	good := testutil.NewPollID(t)
	bad := testutil.NewPollID(t)
	putEntry(t, index, good, epoch)
	putEntry(t, index, bad, epoch)

	discarder := &recordingDiscarder{fail: map[string]bool{bad: true}}
	s := sweeper.Sweeper{
		Index:     index,
		Discarder: discarder,
		Clock:     func() time.Time { return epoch.Add(48 * time.Hour) },
	}

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Discarded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{bad}, indexIDs(t, index))

	discarder.fail = nil
	res, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sweeper.Result{Scanned: 1, Discarded: 1}, res)
	assert.Empty(t, indexIDs(t, index))
}

func TestRunOnceSpansPages(t *testing.T) {
	index := db.NewMetaIndex(testutil.SetupTestDB(t))
	const total = 25
	for range total {
		putEntry(t, index, testutil.NewPollID(t), epoch)
	}

	discarder := &recordingDiscarder{}
	s := sweeper.Sweeper{
		Index:       index,
		Discarder:   discarder,
		PageSize:    7,
		Concurrency: 3,
		Clock:       func() time.Time { return epoch.Add(25 * time.Hour) },
	}

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sweeper.Result{Scanned: total, Discarded: total}, res)
	assert.Len(t, discarder.discarded, total)
	assert.Empty(t, indexIDs(t, index))
}

type brokenIndex struct{ sweeper.Index }

func (brokenIndex) List(context.Context, string, int) (models.IndexPage, error) {
	return models.IndexPage{}, errors.New("connection refused")
}

func TestListFailureAbortsCycle(t *testing.T) {
	s := sweeper.Sweeper{Index: brokenIndex{}, Discarder: &recordingDiscarder{}}
	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestSweepDiscardsLivePoll(t *testing.T) {
	ctx := context.Background()
	conn := testutil.SetupTestDB(t)
	index := db.NewMetaIndex(conn)
	reg := actor.NewRegistry(actor.Options{Store: db.NewStateStore(conn)})
	t.Cleanup(reg.Close)

	def := testutil.ColorPoll(models.DedupIP, false)
	pollID := testutil.NewPollID(t)
	require.NoError(t, index.Put(ctx, models.IndexEntry{PollID: pollID, CreatedAt: epoch, Definition: def}))
	_, err := reg.Create(ctx, pollID, def)
	require.NoError(t, err)

	viewer := testutil.NewSession("viewer", "a")
	require.NoError(t, reg.Attach(ctx, pollID, viewer))

	s := sweeper.Sweeper{
		Index:     index,
		Discarder: reg,
		Clock:     func() time.Time { return epoch.Add(90_000 * time.Second) },
	}
	res, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Discarded)

	assert.Equal(t, models.ErrorFrame{Error: "Poll expired"}, viewer.Last())
	assert.ErrorIs(t, reg.Attach(ctx, pollID, testutil.NewSession("late", "b")), models.ErrPollNotFound)
	_, found := testutil.FindIndexEntry(t, index, pollID)
	assert.False(t, found)
}

func TestRunStopsOnCancel(t *testing.T) {
	index := db.NewMetaIndex(testutil.SetupTestDB(t))
	putEntry(t, index, testutil.NewPollID(t), epoch)

	ctx, cancel := context.WithCancel(context.Background())
	discarder := &recordingDiscarder{}
	s := sweeper.Sweeper{
		Index:     index,
		Discarder: discarder,
		Clock:     func() time.Time { return epoch.Add(48 * time.Hour) },
	}

	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(indexIDs(t, index)) == 0 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
