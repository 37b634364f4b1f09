package usaccidents

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations the table writer needs.
// It decouples the writer from *pgxpool.Pool so it can be exercised with fakes.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// CopyFrom bulk-loads rows using the PostgreSQL COPY protocol and returns
	// the number of rows copied.
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Row represents a single row returned by QueryRow.
type Row interface {
	Scan(dest ...any) error
}
