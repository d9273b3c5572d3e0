package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// minSessionSecretLength is the shortest accepted HMAC key for employee sessions.
const minSessionSecretLength = 16

// Config captures environment driven configuration values for the hour bank service.
type Config struct {
	HTTPPort      int
	SQLitePath    string
	AdminKey      string
	SessionSecret string
	SessionTTL    time.Duration
	// LoginRate is the sustained per-client rate for /badge and /access.
	LoginRate     rate.Limit
	LoginBurst    int
	MigrationsDir string
	LogLevel      slog.Level
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Missing required values and invalid
// values are each collected and reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLitePath: "hourbank.db",
		SessionTTL: 15 * time.Minute,
		LoginRate:  rate.Limit(1),
		LoginBurst: 5,
		LogLevel:   slog.LevelInfo,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := env("HOURBANK_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "HOURBANK_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := env("HOURBANK_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if key := env("HOURBANK_ADMIN_KEY"); key == "" {
		missing = append(missing, "HOURBANK_ADMIN_KEY")
	} else {
		cfg.AdminKey = key
	}

	switch secret := env("HOURBANK_SESSION_SECRET"); {
	case secret == "":
		missing = append(missing, "HOURBANK_SESSION_SECRET")
	case len(secret) < minSessionSecretLength:
		invalid = append(invalid, "HOURBANK_SESSION_SECRET")
	default:
		cfg.SessionSecret = secret
	}

	if ttlValue := env("HOURBANK_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "HOURBANK_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if rateValue := env("HOURBANK_LOGIN_RATE"); rateValue != "" {
		perSecond, err := strconv.ParseFloat(rateValue, 64)
		if err != nil || perSecond <= 0 {
			invalid = append(invalid, "HOURBANK_LOGIN_RATE")
		} else {
			cfg.LoginRate = rate.Limit(perSecond)
		}
	}

	if burstValue := env("HOURBANK_LOGIN_BURST"); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "HOURBANK_LOGIN_BURST")
		} else {
			cfg.LoginBurst = burst
		}
	}

	cfg.MigrationsDir = env("HOURBANK_MIGRATIONS_DIR")

	if levelValue := env("HOURBANK_LOG_LEVEL"); levelValue != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "HOURBANK_LOG_LEVEL")
		}
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("variáveis de ambiente obrigatórias ausentes: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		problems = append(problems, fmt.Sprintf("variáveis de ambiente com valor inválido: %s", strings.Join(invalid, ", ")))
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
