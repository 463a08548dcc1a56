package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	ClientOrigin string
	IdentitySalt string
	// Header carrying the client address, set by a trusted reverse proxy.
	// Empty means the peer address is used.
	TrustedProxyHeader string
	Retention          time.Duration
	SweepInterval      time.Duration
	LogLevel           string
	LogFormat          string
}

// Defaults
const (
	DefaultPort          = 3318
	DefaultRetention     = 24 * time.Hour
	DefaultSweepInterval = 15 * time.Minute
)

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates flags and falls back to environment variables
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("livepoll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.ClientOrigin, "origin", "", "Client origin for CORS and root redirect")
	fs.StringVar(&cfg.TrustedProxyHeader, "trusted-proxy-header", "", "Header holding the client IP, set by a trusted proxy (e.g. CF-Connecting-IP)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.IdentitySalt, "identity-salt", "", "Voter identity salt (prefer env)")

	// Expiry
	fs.DurationVar(&cfg.Retention, "retention", 0, "How long polls are kept")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", 0, "How often expired polls are swept")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.ClientOrigin == "" {
		cfg.ClientOrigin = os.Getenv("CLIENT_ORIGIN")
	}

	if cfg.TrustedProxyHeader == "" {
		cfg.TrustedProxyHeader = os.Getenv("TRUSTED_PROXY_HEADER")
	}

	// Secrets - MUST be provided
	if cfg.IdentitySalt == "" {
		cfg.IdentitySalt = os.Getenv("IDENTITY_SALT")
	}
	if cfg.IdentitySalt == "" {
		return Config{}, errors.New("IDENTITY_SALT required")
	}

	var err error
	if cfg.Retention, err = durationEnv(cfg.Retention, "RETENTION", DefaultRetention); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = durationEnv(cfg.SweepInterval, "SWEEP_INTERVAL", DefaultSweepInterval); err != nil {
		return Config{}, err
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = os.Getenv("LOG_FORMAT")
		if cfg.LogFormat == "" {
			cfg.LogFormat = "text"
		}
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return cfg, nil
}

func durationEnv(current time.Duration, key string, def time.Duration) (time.Duration, error) {
	if current > 0 {
		return current, nil
	}
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}
