package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/hourbank/internal/adapters"
	"github.com/example/hourbank/internal/application"
	"github.com/example/hourbank/internal/config"
	httptransport "github.com/example/hourbank/internal/http"
	"github.com/example/hourbank/internal/logging"
	"github.com/example/hourbank/internal/persistence/sqlite"
	"github.com/example/hourbank/internal/persistence/sqlite/migration"
	"github.com/example/hourbank/internal/persistence/sqlite/migrations"
	"github.com/example/hourbank/internal/seed"
)

const usage = `usage: hourbank [command]

commands:
  serve             apply pending migrations and serve HTTP (default)
  migrate           apply pending migrations and exit
  seed <file.toml>  register employees listed in a TOML file
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "failed to read .env: %v\n", err)
		return 1
	}

	command := "serve"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	case "serve", "migrate":
	case "seed":
		if len(args) != 1 {
			fmt.Fprint(stderr, usage)
			return 2
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	logger := logging.New(stdout, cfg.LogLevel)

	switch command {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "seed":
		err = seedFile(ctx, cfg, args[0], logger)
	}

	if err != nil {
		logger.Error("command failed", "command", command, "error", err)
		return 1
	}
	return 0
}

func migrationSource(cfg config.Config) fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return migrations.Files
}

// openStorage opens the database and brings its schema up to date.
func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlite.ConnectionPool, error) {
	pool, err := sqlite.NewConnectionPool(migration.DefaultSQLiteConfig(cfg.SQLitePath))
	if err != nil {
		return nil, err
	}

	if err := pool.Migrate(ctx, migrationSource(cfg), logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return pool, nil
}

func migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	pool, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	status, err := pool.MigrationStatus(ctx, migrationSource(cfg), logger)
	if err != nil {
		return fmt.Errorf("read migration status: %w", err)
	}
	logger.Info("database schema is current",
		"path", cfg.SQLitePath,
		"version", status.CurrentVersion,
		"applied", len(status.AppliedMigrations),
		"pending", status.PendingCount,
	)
	return nil
}

func seedFile(ctx context.Context, cfg config.Config, path string, logger *slog.Logger) error {
	file, err := seed.LoadFile(path)
	if err != nil {
		return err
	}

	pool, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	wired := newApp(cfg, pool, nil, logger)
	_, err = seed.Apply(ctx, file, wired.access, wired.ledger, logger)
	return err
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	pool, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newApp(cfg, pool, nil, logger).handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("hour bank API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("hour bank API stopped")
	return nil
}

type app struct {
	cfg      config.Config
	pool     *sqlite.ConnectionPool
	sessions *application.SessionManager
	access   *application.AccessService
	ledger   *application.LedgerService
	logger   *slog.Logger
}

// newApp wires stores and services over pool. A nil hasher selects the
// production Argon2id parameters.
func newApp(cfg config.Config, pool *sqlite.ConnectionPool, hasher application.CodeHasher, logger *slog.Logger) *app {
	now := time.Now
	employees := adapters.NewEmployeeStore(sqlite.NewEmployeeRepository(pool))
	entries := adapters.NewLedgerStore(sqlite.NewLedgerRepository(pool))
	sessions := application.NewSessionManager([]byte(cfg.SessionSecret), cfg.SessionTTL, now)

	return &app{
		cfg:      cfg,
		pool:     pool,
		sessions: sessions,
		access:   application.NewAccessServiceWithLogger(employees, hasher, application.CryptoTokenSource{}, sessions, now, logger),
		ledger:   application.NewLedgerServiceWithLogger(entries, employees, now, logger),
		logger:   logger,
	}
}

func (a *app) handler() http.Handler {
	limiter := httptransport.NewRateLimiter(a.cfg.LoginRate, a.cfg.LoginBurst)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Access:          httptransport.NewAccessHandler(a.access, a.logger),
		Statements:      httptransport.NewStatementHandler(a.ledger, a.logger),
		Admin:           httptransport.NewAdminHandler(a.access, a.ledger, a.logger),
		Health:          httptransport.NewHealthHandler(a.pool, a.logger),
		RequireEmployee: httptransport.RequireEmployee(a.sessions, a.logger),
		RequireAdmin:    httptransport.RequireAdmin(a.cfg.AdminKey, a.logger),
		LoginLimiter:    limiter.Middleware(a.logger),
		Middleware:      []func(http.Handler) http.Handler{httptransport.RequestLogger(a.logger)},
	})
}
