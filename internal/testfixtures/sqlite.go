package testfixtures

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/hourbank/internal/adapters"
	"github.com/example/hourbank/internal/persistence/sqlite"
	"github.com/example/hourbank/internal/persistence/sqlite/migration"
	"github.com/example/hourbank/internal/persistence/sqlite/migrations"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database file.
type SQLiteHarness struct {
	Pool      *sqlite.ConnectionPool
	Employees *sqlite.EmployeeRepository
	Ledger    *sqlite.LedgerRepository

	cleanup func()
}

// EmployeeStore returns the employee repository adapted for application services.
func (h *SQLiteHarness) EmployeeStore() *adapters.EmployeeStore {
	return adapters.NewEmployeeStore(h.Employees)
}

// LedgerStore returns the ledger repository adapted for application services.
func (h *SQLiteHarness) LedgerStore() *adapters.LedgerStore {
	return adapters.NewLedgerStore(h.Ledger)
}

// Reset removes every row while keeping the schema.
func (h *SQLiteHarness) Reset(tb testing.TB) {
	tb.Helper()
	err := h.Pool.WithTransaction(context.Background(), func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM hour_entries",
			"DELETE FROM employees",
			"DELETE FROM sqlite_sequence WHERE name IN ('hour_entries', 'employees')",
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		tb.Fatalf("failed to reset harness: %v", err)
	}
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a temporary database file and applies the embedded
// migrations. Close is registered with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "hourbank.db")
	pool, err := sqlite.NewConnectionPool(migration.TempFileTestSQLiteConfig(path))
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := pool.Migrate(context.Background(), migrations.Files, logger); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:      pool,
		Employees: sqlite.NewEmployeeRepository(pool),
		Ledger:    sqlite.NewLedgerRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
