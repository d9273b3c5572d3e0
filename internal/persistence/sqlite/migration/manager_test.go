package migration

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"
)

type stubScanner struct {
	migrations []Migration
	err        error
}

func (s *stubScanner) ScanMigrations(fs.FS) ([]Migration, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.migrations, nil
}

func (s *stubScanner) ValidateFileName(string) error { return nil }

func (s *stubScanner) ParseMigrationFile(fs.FS, string) (*Migration, error) { return nil, nil }

type stubExecutor struct {
	applied  []AppliedMigration
	initErr  error
	applyErr error
	order    []string
}

func (e *stubExecutor) InitializeVersionTable(context.Context) error { return e.initErr }

func (e *stubExecutor) ApplyMigration(_ context.Context, m Migration) (time.Duration, error) {
	if e.applyErr != nil {
		return 0, e.applyErr
	}
	e.order = append(e.order, m.Version)
	e.applied = append(e.applied, AppliedMigration{Version: m.Version, Checksum: m.Checksum})
	return time.Millisecond, nil
}

func (e *stubExecutor) GetAppliedVersions(context.Context) ([]AppliedMigration, error) {
	return e.applied, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigrationManager_RunMigrations_AppliesPendingInOrder(t *testing.T) {
	t.Parallel()

	scanner := &stubScanner{migrations: []Migration{
		{Version: "001", Checksum: "a"},
		{Version: "002", Checksum: "b"},
		{Version: "003", Checksum: "c"},
	}}
	executor := &stubExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "a"}}}

	manager := NewMigrationManager(scanner, executor, fstest.MapFS{}, quietLogger())
	if err := manager.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	if len(executor.order) != 2 || executor.order[0] != "002" || executor.order[1] != "003" {
		t.Fatalf("unexpected execution order %v", executor.order)
	}

	status, err := manager.GetMigrationStatus(context.Background())
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != "003" || status.PendingCount != 0 {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestMigrationManager_RunMigrations_Failures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	cases := []struct {
		name     string
		scanner  *stubScanner
		executor *stubExecutor
		want     error
	}{
		{
			name:     "initialization",
			scanner:  &stubScanner{},
			executor: &stubExecutor{initErr: boom},
			want:     boom,
		},
		{
			name:     "scan",
			scanner:  &stubScanner{err: boom},
			executor: &stubExecutor{},
			want:     boom,
		},
		{
			name:     "execution",
			scanner:  &stubScanner{migrations: []Migration{{Version: "001"}}},
			executor: &stubExecutor{applyErr: boom},
			want:     ErrMigrationFailed,
		},
		{
			name:     "gap in sequence",
			scanner:  &stubScanner{migrations: []Migration{{Version: "001"}, {Version: "003"}}},
			executor: &stubExecutor{},
			want:     ErrVersionConflict,
		},
		{
			name:     "applied version without file",
			scanner:  &stubScanner{migrations: []Migration{{Version: "001"}}},
			executor: &stubExecutor{applied: []AppliedMigration{{Version: "001"}, {Version: "002"}}},
			want:     ErrVersionConflict,
		},
		{
			name:     "edited applied file",
			scanner:  &stubScanner{migrations: []Migration{{Version: "001", Checksum: "new"}}},
			executor: &stubExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "old"}}},
			want:     ErrChecksumMismatch,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			manager := NewMigrationManager(tc.scanner, tc.executor, fstest.MapFS{}, quietLogger())
			err := manager.RunMigrations(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMigrationManager_AgainstSQLite(t *testing.T) {
	t.Parallel()

	source := fstest.MapFS{
		"001_create_things.sql": {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY, label TEXT);")},
		"002_seed_things.sql":   {Data: []byte("INSERT INTO things (label) VALUES ('one'); INSERT INTO things (label) VALUES ('two');")},
	}

	db := setupTestDB(t)
	manager := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), source, quietLogger())
	ctx := context.Background()

	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("second run should be a no-op: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM things").Scan(&count); err != nil {
		t.Fatalf("count things: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected seed rows to be inserted once, got %d", count)
	}
}
