// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections, schema creation, and the two
durable stores used by the service.

# Connections

Open selects the driver from the configured database type:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

"sqlite" uses modernc.org/sqlite (pure Go, default); "postgres" uses
lib/pq. Queries use $N placeholders, which both drivers accept.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll_meta: metadata index (id, created_at unix seconds, definition JSON)
  - poll_state: actor-owned definition per poll
  - vote_ledger: actor-owned (poll_id, choice_index, voter) -> submissions

# Stores

StateStore is written only by a poll's actor:

	store := db.NewStateStore(conn)
	err := store.SaveVotes(ctx, pollID, rows)

MetaIndex is scanned by the expiry sweeper with an opaque cursor:

	page, err := index.List(ctx, cursor, 100)
	for !page.Complete { ... }

Storage failures are wrapped with models.ErrStorage.
*/
package db
