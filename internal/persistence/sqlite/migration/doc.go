// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files are read from an fs.FS (the embedded set shipped with the
// binary, or a directory on disk) and must be named {version}_{description}.sql,
// for example "001_create_employees.sql". Applied versions are tracked in the
// schema_migrations table, and each migration runs in its own transaction
// together with its bookkeeping row.
//
// Example usage:
//
//	manager := migration.NewMigrationManager(
//		migration.NewFileScanner(),
//		migration.NewSQLiteExecutor(db),
//		migrations.Files,
//		logger,
//	)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
