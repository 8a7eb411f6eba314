// Package store is the thin typed repository layer (C8): it owns every
// SQL statement the engine issues and nothing else. It knows how to open
// a Postgres connection pool, apply the embedded schema, and scan rows
// into domain types; it holds no business rules.
package store

import (
	"context"
	"database/sql"
)

// Queryer is the narrow surface the repository needs; both *sql.DB and
// *sql.Tx satisfy it, so every Repository method works unchanged whether
// it runs standalone or inside a caller-managed transaction. This mirrors
// the corpus's own helpers (postgres-consumer's insertContractEventTx)
// that take either a *sql.DB or a *sql.Tx as their first argument, except
// here the indirection is captured once in an interface instead of
// repeated per call site.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Queryer = (*sql.DB)(nil)
	_ Queryer = (*sql.Tx)(nil)
)
