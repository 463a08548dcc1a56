// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the livepoll server.

livepoll publishes short-lived multiple-choice polls. Participants watch
the tally over a websocket and see it update the moment anyone votes.
Each poll is owned by a single actor goroutine that serializes votes,
enforces per-address deduplication and broadcasts new counts.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=livepoll.db IDENTITY_SALT=... go run .

Or with flags:

	go run . -p 3318 -d "postgres://..." -t postgres -identity-salt ...

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - IDENTITY_SALT (-identity-salt): Secret for voter identity hashing

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - CLIENT_ORIGIN (-origin): Frontend origin
  - RETENTION (-retention): Poll lifetime (default: 24h)
  - SWEEP_INTERVAL (-sweep-interval): Expiry sweep period (default: 15m)
  - LOG_LEVEL, LOG_FORMAT: Logging (default: info, text)

# Architecture

  - actor: Per-poll actors and the registry that routes to them
  - ledger: Vote ledger and count aggregation
  - sweeper: Periodic removal of expired polls
  - handlers: HTTP and websocket handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, response helpers
  - models: Definitions, wire frames and sentinel errors
  - auth: Poll ids and voter identity
  - db: Schema, actor storage and the metadata index
  - metrics: Prometheus instruments
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
