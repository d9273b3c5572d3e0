// Package migrations holds the SQL schema shipped inside the binary.
package migrations

import "embed"

// Files contains every {version}_{description}.sql migration at its root.
//
//go:embed *.sql
var Files embed.FS
