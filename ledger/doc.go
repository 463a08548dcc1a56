// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger holds the per-choice, per-voter vote record of one poll.

Votes are recorded in two steps so that durable storage can be written
before the in-memory state changes:

	rows, err := l.Next(voter, []int{0})
	// persist rows
	err = l.Apply(rows)

Counts derives the aggregate {name, count} pairs. With "ip" dedup a choice
counts distinct voters; with "none" it sums submission counters.
*/
package ledger
