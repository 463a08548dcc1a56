// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the livepoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, registry, prometheus.DefaultGatherer, cfg)

# Endpoints

Operational:

	GET /health  - Liveness check
	GET /metrics - Prometheus metrics

Polls:

	POST /api/poll      - Create poll, responds with the poll id as text
	GET  /api/poll/{id} - Definition and current counts

Live sessions:

	GET /api/socket/{id} - Websocket: full state on connect, count
	                       updates after every accepted vote

GET / redirects to the client origin when one is configured.

# Handler Initialization

Handlers share the actor registry; the poll handler also writes the
metadata index read by the expiry sweeper.
*/
package router
