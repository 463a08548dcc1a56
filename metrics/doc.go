// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus instruments for poll actors, the actor
// registry and the expiry sweeper. Methods on a nil *Collector are no-ops so
// components can run uninstrumented in tests.
package metrics
