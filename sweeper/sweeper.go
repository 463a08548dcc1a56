// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/models"
)

// Defaults applied to zero-valued Sweeper fields
const (
	DefaultRetention   = 24 * time.Hour
	DefaultPageSize    = 100
	DefaultConcurrency = 8
)

// Index is the metadata index scanned by the sweeper.
type Index interface {
	List(ctx context.Context, cursor string, limit int) (models.IndexPage, error)
	Delete(ctx context.Context, pollID string) error
}

// Discarder tears down a poll's live and durable state.
type Discarder interface {
	Discard(ctx context.Context, pollID string) error
}

// Sweeper removes polls older than Retention. An index row is deleted only
// after its poll was discarded, so failed entries are retried next cycle.
type Sweeper struct {
	Index       Index
	Discarder   Discarder
	Retention   time.Duration
	PageSize    int
	Concurrency int
	Clock       func() time.Time
	Logger      *slog.Logger
	Metrics     *metrics.Collector
}

// Result summarizes one sweep cycle.
type Result struct {
	Scanned   int
	Discarded int
	Failed    int
	// NextExpiry is the earliest expiry among polls left alive, zero when
	// none remain.
	NextExpiry time.Time
}

// Summary renders r for operators, with the next expiry relative to now.
func (r Result) Summary(now time.Time) string {
	next := "no live polls"
	if !r.NextExpiry.IsZero() {
		next = "next expiry " + humanize.RelTime(r.NextExpiry, now, "ago", "from now")
	}
	return fmt.Sprintf("%s scanned, %s discarded, %s failed, %s",
		humanize.Comma(int64(r.Scanned)),
		humanize.Comma(int64(r.Discarded)),
		humanize.Comma(int64(r.Failed)),
		next,
	)
}

func (s Sweeper) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s Sweeper) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s Sweeper) retention() time.Duration {
	if s.Retention <= 0 {
		return DefaultRetention
	}
	return s.Retention
}

// RunOnce scans the whole index once. It returns an error only when a page
// cannot be listed; per-poll failures are logged and counted in Result.
func (s Sweeper) RunOnce(ctx context.Context) (Result, error) {
	logger := s.logger()
	started := time.Now()
	now := s.now()
	retention := s.retention()

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var (
		res       Result
		discarded atomic.Int64
		failed    atomic.Int64
		cursor    string
	)

	for {
		page, err := s.Index.List(ctx, cursor, pageSize)
		if err != nil {
			logger.Error("sweep failed to list index", "error", err)
			return res, err
		}
		res.Scanned += len(page.Entries)

		var g errgroup.Group
		g.SetLimit(concurrency)
		for _, entry := range page.Entries {
			if !entry.Expired(now, retention) {
				if exp := entry.CreatedAt.Add(retention); res.NextExpiry.IsZero() || exp.Before(res.NextExpiry) {
					res.NextExpiry = exp
				}
				continue
			}
			g.Go(func() error {
				if s.expire(ctx, logger, entry, now) {
					discarded.Add(1)
				} else {
					failed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		if page.Complete || ctx.Err() != nil {
			break
		}
		cursor = page.Cursor
	}

	res.Discarded = int(discarded.Load())
	res.Failed = int(failed.Load())
	s.Metrics.SweepCompleted(time.Since(started))

	level := slog.LevelDebug
	if res.Discarded > 0 || res.Failed > 0 {
		level = slog.LevelInfo
	}
	logger.Log(ctx, level, "sweep completed",
		"summary", res.Summary(now),
		"duration", time.Since(started),
	)

	return res, ctx.Err()
}

func (s Sweeper) expire(ctx context.Context, logger *slog.Logger, entry models.IndexEntry, now time.Time) bool {
	logger = logger.With("poll_id", entry.PollID, "created", humanize.RelTime(entry.CreatedAt, now, "ago", "from now"))

	if err := s.Discarder.Discard(ctx, entry.PollID); err != nil {
		logger.Error("failed to discard expired poll", "error", err)
		s.Metrics.SweepFailed()
		return false
	}
	if err := s.Index.Delete(ctx, entry.PollID); err != nil {
		logger.Error("failed to delete index entry", "error", err)
		s.Metrics.SweepFailed()
		return false
	}

	s.Metrics.PollDiscarded()
	logger.Debug("expired poll discarded")
	return true
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s Sweeper) Run(ctx context.Context, interval time.Duration) {
	logger := s.logger()
	logger.Info("sweeper started", "interval", interval, "retention", s.retention())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("sweep cycle aborted", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
