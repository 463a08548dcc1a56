// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/livepoll/actor"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/handlers"
	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/middleware"
)

const banner = "livepoll API v1"

func NewRouter(dbConn *sql.DB, registry *actor.Registry, gatherer prometheus.Gatherer, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(registry, db.NewMetaIndex(dbConn), cfg)
	resultsHandler := handlers.NewResultsHandler(registry)
	socketHandler := handlers.NewSocketHandler(registry, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler(gatherer))

	// Polls
	mux.HandleFunc("POST /api/poll", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /api/poll/{id}", middleware.WithLogging(resultsHandler.GetPoll))

	// Live sessions
	mux.HandleFunc("GET /api/socket/{id}", middleware.WithLogging(socketHandler.Connect))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ClientOrigin != "" {
			http.Redirect(w, r, cfg.ClientOrigin, http.StatusMovedPermanently)
			return
		}
		w.Write([]byte(banner))
	})

	return mux
}
