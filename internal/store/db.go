package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaFS embed.FS

// PoolConfig bounds a Postgres connection pool, mirroring the
// corpus's HotReader/PostgreSQLSink connection setup.
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens a Postgres connection pool and verifies connectivity.
func Open(cfg PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// Migrate applies the embedded schema. Every statement is
// CREATE-TABLE/INDEX-IF-NOT-EXISTS, so it is safe to run on every boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	raw, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	for i, stmt := range splitStatements(string(raw)) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

// splitStatements splits on top-level semicolons, matching the corpus's
// contract-data-processor consumer schema loader.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	for _, ch := range sql {
		current.WriteRune(ch)
		switch ch {
		case '\'':
			inString = !inString
		case ';':
			if !inString {
				statements = append(statements, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		statements = append(statements, current.String())
	}
	return statements
}

// Ping is used by the readiness handler.
func Ping(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
