// migrations/embed.go
package migrations

import "embed"

// FS holds the versioned schema files applied by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
