// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the livepoll API.

# Handler Types

Each handler is a struct holding the actor registry and, where needed, the
metadata index and configuration:

  - PollHandler: Poll creation
  - ResultsHandler: Current state of a poll
  - SocketHandler: Live viewer sessions over websocket

	pollHandler := handlers.NewPollHandler(registry, db.NewMetaIndex(conn), cfg)

# Poll Creation

	POST /api/poll {"question": "...", "choices": [...], "dedup": "ip", "multiOk": false}

Empty choices are dropped; at least two must remain. The response body is
the 64-character poll id as text/plain. The metadata index row is written
before the poll's actor is created.

# Live Sessions

	GET /api/socket/{id}

After the upgrade the server sends the full state:

	{"question": "Color?", "choices": ["Red", "Blue"], "dedup": "ip", "multiOk": false,
	 "counts": [{"name": "Red", "count": 0}, {"name": "Blue", "count": 0}]}

Clients send one of:

	{"id": "<poll id>"}   re-attach, answered with the full state
	{"answers": [1]}      vote, broadcast to every session as {"counts": [...]}

The voter identity used for "ip" deduplication is a salted hash of the
peer address, or of cfg.TrustedProxyHeader when a proxy sets it.

Rejections are sent only to the voter as {"error": "..."}. A frame that is
neither shape ends the session. When the poll expires every session
receives {"error": "Poll expired"} and is closed.

# Error Handling

HTTP handlers respond through middleware.ErrorResponse:

	400 Bad Request   - Invalid JSON, invalid definition, malformed id
	404 Not Found     - Poll does not exist
	426 Upgrade Required - Socket endpoint called without an upgrade
	500 Internal Server Error - Storage failures
*/
package handlers
