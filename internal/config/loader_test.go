package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

var allKeys = []string{
	"HOURBANK_HTTP_PORT",
	"HOURBANK_SQLITE_PATH",
	"HOURBANK_ADMIN_KEY",
	"HOURBANK_SESSION_SECRET",
	"HOURBANK_SESSION_TTL",
	"HOURBANK_LOGIN_RATE",
	"HOURBANK_LOGIN_BURST",
	"HOURBANK_MIGRATIONS_DIR",
	"HOURBANK_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		// Setenv registers the restore; Unsetenv then removes the value.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when optional variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOURBANK_ADMIN_KEY", "admin-key")
		t.Setenv("HOURBANK_SESSION_SECRET", "0123456789abcdef")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLitePath != "hourbank.db" {
			t.Fatalf("unexpected default path: %q", cfg.SQLitePath)
		}
		if cfg.SessionTTL != 15*time.Minute {
			t.Fatalf("expected default TTL 15m, got %s", cfg.SessionTTL)
		}
		if cfg.LoginRate != rate.Limit(1) || cfg.LoginBurst != 5 {
			t.Fatalf("unexpected default login throttle %v/%d", cfg.LoginRate, cfg.LoginBurst)
		}
		if cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("expected info level, got %v", cfg.LogLevel)
		}
		if cfg.MigrationsDir != "" {
			t.Fatalf("expected embedded migrations by default, got %q", cfg.MigrationsDir)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "variáveis de ambiente obrigatórias ausentes: HOURBANK_ADMIN_KEY, HOURBANK_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports missing and invalid values together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOURBANK_SESSION_SECRET", "short")
		t.Setenv("HOURBANK_HTTP_PORT", "http")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error")
		}
		expected := "variáveis de ambiente obrigatórias ausentes: HOURBANK_ADMIN_KEY; " +
			"variáveis de ambiente com valor inválido: HOURBANK_HTTP_PORT, HOURBANK_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses every optional field", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOURBANK_ADMIN_KEY", "admin-key")
		t.Setenv("HOURBANK_SESSION_SECRET", "0123456789abcdef")
		t.Setenv("HOURBANK_HTTP_PORT", "9090")
		t.Setenv("HOURBANK_SQLITE_PATH", "/var/lib/hourbank/data.db")
		t.Setenv("HOURBANK_SESSION_TTL", "30m")
		t.Setenv("HOURBANK_LOGIN_RATE", "0.5")
		t.Setenv("HOURBANK_LOGIN_BURST", "3")
		t.Setenv("HOURBANK_MIGRATIONS_DIR", " ./migrations ")
		t.Setenv("HOURBANK_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.SQLitePath != "/var/lib/hourbank/data.db" {
			t.Fatalf("unexpected port or path: %d %q", cfg.HTTPPort, cfg.SQLitePath)
		}
		if cfg.SessionTTL != 30*time.Minute {
			t.Fatalf("expected session TTL 30m, got %s", cfg.SessionTTL)
		}
		if cfg.LoginRate != rate.Limit(0.5) || cfg.LoginBurst != 3 {
			t.Fatalf("unexpected login throttle %v/%d", cfg.LoginRate, cfg.LoginBurst)
		}
		if cfg.MigrationsDir != "./migrations" {
			t.Fatalf("expected trimmed migrations dir, got %q", cfg.MigrationsDir)
		}
		if cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("expected debug level, got %v", cfg.LogLevel)
		}
	})

	t.Run("rejects malformed optional values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOURBANK_ADMIN_KEY", "admin-key")
		t.Setenv("HOURBANK_SESSION_SECRET", "0123456789abcdef")
		t.Setenv("HOURBANK_SESSION_TTL", "-1m")
		t.Setenv("HOURBANK_LOGIN_RATE", "zero")
		t.Setenv("HOURBANK_LOGIN_BURST", "0")
		t.Setenv("HOURBANK_LOG_LEVEL", "loud")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for malformed values")
		}
		expected := "variáveis de ambiente com valor inválido: HOURBANK_SESSION_TTL, HOURBANK_LOGIN_RATE, HOURBANK_LOGIN_BURST, HOURBANK_LOG_LEVEL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}
