// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	_ = cliparse.LoadDotEnv(".env")
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite path or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - ClientOrigin: Frontend origin for CORS and the root redirect
  - IdentitySalt: Secret for voter identity hashing (required)
  - Retention: Poll lifetime (default: 24h)
  - SweepInterval: Expiry sweep period (default: 15m)
  - LogLevel, LogFormat: slog handler settings (default: info, text)

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	-origin          Client origin
	-identity-salt   Voter identity salt
	-retention       Poll retention
	-sweep-interval  Sweep interval
	-log-level       Log level
	-log-format      Log format

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	CLIENT_ORIGIN  → -origin
	IDENTITY_SALT  → -identity-salt
	RETENTION      → -retention
	SWEEP_INTERVAL → -sweep-interval
	LOG_LEVEL      → -log-level
	LOG_FORMAT     → -log-format

CLI flags take precedence over environment variables, which take precedence
over values loaded from a .env file.

# Validation

ParseFlags returns an error if DATABASE_URL or IDENTITY_SALT is missing, or
if a duration, database type, log level or log format is invalid.
*/
package cliparse
