package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/danielhkuo/livepoll/actor"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/router"
	"github.com/danielhkuo/livepoll/sweeper"
)

func main() {
	var err error

	// Parse configuration
	if err := cliparse.LoadDotEnv(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(promRegistry, "livepoll")

	// Poll actors
	registry := actor.NewRegistry(actor.Options{
		Store:   db.NewStateStore(dbConn),
		Logger:  slog.Default().With("component", "actor"),
		Metrics: collector,
	})
	defer registry.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Expiry sweeper
	sweep := sweeper.Sweeper{
		Index:     db.NewMetaIndex(dbConn),
		Discarder: registry,
		Retention: cfg.Retention,
		Logger:    slog.Default().With("component", "sweeper"),
		Metrics:   collector,
	}
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweep.Run(ctx, cfg.SweepInterval)
	}()

	// Create router
	mux := router.NewRouter(dbConn, registry, promRegistry, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(cfg.ClientOrigin)(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "trusted_proxy_header", cfg.TrustedProxyHeader)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	stop()
	<-sweepDone
	slog.Info("Stopping poll actors", "actors", registry.Len())
}

func newLogger(cfg cliparse.Config) *slog.Logger {
	level, _ := cliparse.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
