// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Vote rejection reasons
const (
	ReasonNotFound  = "not_found"
	ReasonDuplicate = "duplicate"
	ReasonInvalid   = "invalid"
	ReasonStorage   = "storage"
)

// Collector holds the service's Prometheus instruments.
// A nil *Collector is valid and records nothing.
type Collector struct {
	pollsCreated   prometheus.Counter
	votes          *prometheus.CounterVec
	votesRejected  *prometheus.CounterVec
	sessions       prometheus.Gauge
	evictions      prometheus.Counter
	actors         prometheus.Gauge
	discards       prometheus.Counter
	sweepFailures  prometheus.Counter
	sweepDurations prometheus.Histogram
}

// New creates and registers the collectors on reg
// (prometheus.DefaultRegisterer when nil) under namespace ("livepoll" when empty).
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "livepoll"
	}

	c := &Collector{
		pollsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actor",
			Name:      "polls_created_total",
			Help:      "Polls created.",
		}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actor",
			Name:      "votes_total",
			Help:      "Accepted vote submissions by dedup mode.",
		}, []string{"dedup"}),
		votesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actor",
			Name:      "votes_rejected_total",
			Help:      "Rejected vote submissions by reason.",
		}, []string{"reason"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "actor",
			Name:      "sessions_current",
			Help:      "Viewer sessions attached across all polls.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actor",
			Name:      "session_evictions_total",
			Help:      "Sessions evicted after a failed send.",
		}),
		actors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "actors_current",
			Help:      "Running poll actors.",
		}),
		discards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "discarded_total",
			Help:      "Expired polls discarded and removed from the index.",
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "failures_total",
			Help:      "Expired polls left in the index after a failed discard or delete.",
		}),
		sweepDurations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "run_duration_seconds",
			Help:      "Duration of complete sweep cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	reg.MustRegister(
		c.pollsCreated,
		c.votes,
		c.votesRejected,
		c.sessions,
		c.evictions,
		c.actors,
		c.discards,
		c.sweepFailures,
		c.sweepDurations,
	)

	return c
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (c *Collector) PollCreated() {
	if c == nil {
		return
	}
	c.pollsCreated.Inc()
}

func (c *Collector) VoteAccepted(dedup string) {
	if c == nil {
		return
	}
	c.votes.WithLabelValues(dedup).Inc()
}

func (c *Collector) VoteRejected(reason string) {
	if c == nil {
		return
	}
	c.votesRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) SessionAttached() {
	if c == nil {
		return
	}
	c.sessions.Inc()
}

func (c *Collector) SessionsDetached(n int) {
	if c == nil || n == 0 {
		return
	}
	c.sessions.Sub(float64(n))
}

func (c *Collector) SessionEvicted() {
	if c == nil {
		return
	}
	c.evictions.Inc()
}

func (c *Collector) ActorStarted() {
	if c == nil {
		return
	}
	c.actors.Inc()
}

func (c *Collector) ActorStopped() {
	if c == nil {
		return
	}
	c.actors.Dec()
}

func (c *Collector) PollDiscarded() {
	if c == nil {
		return
	}
	c.discards.Inc()
}

func (c *Collector) SweepFailed() {
	if c == nil {
		return
	}
	c.sweepFailures.Inc()
}

func (c *Collector) SweepCompleted(d time.Duration) {
	if c == nil {
		return
	}
	c.sweepDurations.Observe(d.Seconds())
}
