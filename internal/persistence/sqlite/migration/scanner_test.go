package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFileScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"010_add_index.sql":      {Data: []byte("CREATE INDEX idx_t ON t(name);")},
		"002_add_column.sql":     {Data: []byte("-- Description: Add name column\nALTER TABLE t ADD COLUMN name TEXT;")},
		"001_create_table.sql":   {Data: []byte("CREATE TABLE t (id INTEGER PRIMARY KEY);")},
		"README.md":              {Data: []byte("not a migration")},
		"nested/003_ignored.sql": {Data: []byte("CREATE TABLE ignored (id INTEGER);")},
	}

	migrations, err := NewFileScanner().ScanMigrations(fsys)
	if err != nil {
		t.Fatalf("ScanMigrations returned error: %v", err)
	}

	wantVersions := []string{"001", "002", "010"}
	if len(migrations) != len(wantVersions) {
		t.Fatalf("expected %d migrations, got %d", len(wantVersions), len(migrations))
	}
	for i, want := range wantVersions {
		if migrations[i].Version != want {
			t.Fatalf("migration %d: expected version %s, got %s", i, want, migrations[i].Version)
		}
	}

	if migrations[0].Description != "create table" {
		t.Fatalf("expected description from filename, got %q", migrations[0].Description)
	}
	if migrations[1].Description != "Add name column" {
		t.Fatalf("expected description from header, got %q", migrations[1].Description)
	}
	if len(migrations[0].Checksum) != 64 {
		t.Fatalf("expected sha256 hex checksum, got %q", migrations[0].Checksum)
	}
}

func TestFileScanner_ScanMigrations_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fsys fstest.MapFS
		want error
	}{
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
				"001_b.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
			},
			want: ErrDuplicateVersion,
		},
		{
			name: "bad file name",
			fsys: fstest.MapFS{
				"create_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
			},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "comment only",
			fsys: fstest.MapFS{
				"001_empty.sql": {Data: []byte("-- nothing here\n")},
			},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "unbalanced parentheses",
			fsys: fstest.MapFS{
				"001_broken.sql": {Data: []byte("CREATE TABLE a (id INTEGER;")},
			},
			want: ErrInvalidMigrationFile,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewFileScanner().ScanMigrations(tc.fsys)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFileScanner_ScanMigrations_NilSource(t *testing.T) {
	t.Parallel()

	if _, err := NewFileScanner().ScanMigrations(nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestFileScanner_ValidateFileName(t *testing.T) {
	t.Parallel()

	scanner := NewFileScanner()
	valid := []string{"001_init.sql", "12_add-index.sql", "0003_Create_Employees.sql"}
	for _, name := range valid {
		if err := scanner.ValidateFileName(name); err != nil {
			t.Errorf("expected %q to be valid, got %v", name, err)
		}
	}

	invalid := []string{"init.sql", "001.sql", "001_init.txt", "v1_init.sql", "001_in it.sql"}
	for _, name := range invalid {
		if err := scanner.ValidateFileName(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
