// cliparse/cliparse_test.go
package cliparse

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("IDENTITY_SALT", "test-salt")
	t.Setenv("RETENTION", "2h")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("CLIENT_ORIGIN", "https://poll.example")
	t.Setenv("TRUSTED_PROXY_HEADER", "CF-Connecting-IP")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.DatabaseType)
	}
	if cfg.Retention != 2*time.Hour {
		t.Errorf("expected retention 2h, got %v", cfg.Retention)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("expected sweep interval 30s, got %v", cfg.SweepInterval)
	}
	if cfg.ClientOrigin != "https://poll.example" {
		t.Errorf("unexpected client origin %q", cfg.ClientOrigin)
	}
	if cfg.TrustedProxyHeader != "CF-Connecting-IP" {
		t.Errorf("unexpected trusted proxy header %q", cfg.TrustedProxyHeader)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("RETENTION", "")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("TRUSTED_PROXY_HEADER", "")

	cfg, err := ParseFlags([]string{"-d", "file:test.db", "-identity-salt", "s"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.Retention != DefaultRetention || cfg.SweepInterval != DefaultSweepInterval {
		t.Errorf("unexpected expiry settings %v / %v", cfg.Retention, cfg.SweepInterval)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected text log format, got %q", cfg.LogFormat)
	}
	if cfg.TrustedProxyHeader != "" {
		t.Errorf("forwarding headers must not be trusted by default, got %q", cfg.TrustedProxyHeader)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RETENTION", "2h")
	t.Setenv("TRUSTED_PROXY_HEADER", "X-Forwarded-For")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-identity-salt", "s1", "-retention", "1h", "-trusted-proxy-header", "CF-Connecting-IP"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.Retention != time.Hour {
		t.Errorf("CLI should override env: expected 1h, got %v", cfg.Retention)
	}
	if cfg.TrustedProxyHeader != "CF-Connecting-IP" {
		t.Errorf("CLI should override env: got %q", cfg.TrustedProxyHeader)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing database", nil, []string{"-identity-salt", "s"}},
		{"missing salt", map[string]string{"IDENTITY_SALT": ""}, []string{"-d", "file:x.db"}},
		{"bad port", map[string]string{"PORT": "abc"}, []string{"-d", "file:x.db", "-identity-salt", "s"}},
		{"bad database type", nil, []string{"-d", "x", "-t", "mysql", "-identity-salt", "s"}},
		{"bad retention", map[string]string{"RETENTION": "forever"}, []string{"-d", "x", "-identity-salt", "s"}},
		{"bad log level", nil, []string{"-d", "x", "-identity-salt", "s", "-log-level", "loud"}},
		{"bad log format", nil, []string{"-d", "x", "-identity-salt", "s", "-log-format", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("PORT", "")
			t.Setenv("RETENTION", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LIVEPOLL_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIVEPOLL_TEST_VALUE", "")
	os.Unsetenv("LIVEPOLL_TEST_VALUE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("LIVEPOLL_TEST_VALUE"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should not be an error: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
}
