// internal/repository/db_executor.go
package repository

import (
	"context"
	"database/sql"
)

// DBExecutor is the query surface every repository method receives.
// *sqlx.DB and *sqlx.Tx satisfy it for Postgres; memory.Store and memory.Tx satisfy it
// for the in-process driver, where it only marks which transaction a call belongs to.
// Services pass the same executor to several repositories to make their writes one atomic unit.
type DBExecutor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
