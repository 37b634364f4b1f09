// Package store creates the cities and accidents tables and bulk-loads them with COPY.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// pgCodeDuplicateTable is raised by CREATE TABLE when the table exists.
const pgCodeDuplicateTable = "42P07"

// AccidentSource yields joined accidents. *normalize.Joiner satisfies it.
type AccidentSource interface {
	Next() bool
	Accident() usaccidents.Accident
	Err() error
}

// Writer issues DDL and COPY statements against one database.
type Writer struct {
	conn   usaccidents.DBConnection
	logger usaccidents.Logger
}

// NewWriter creates a Writer.
func NewWriter(conn usaccidents.DBConnection, logger usaccidents.Logger) *Writer {
	return &Writer{conn: conn, logger: logger}
}

// CreateTables creates both output tables. With IfExistsReplace existing tables
// are dropped first, accidents before cities. The statements run as one
// argument-less Exec, which PostgreSQL executes as a single implicit
// transaction: a failure leaves neither table created nor dropped.
func (w *Writer) CreateTables(ctx context.Context, policy usaccidents.IfExists) error {
	if _, err := w.conn.Exec(ctx, createTablesBatch(policy)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCodeDuplicateTable {
			return fmt.Errorf("%s (use --if-exists=replace to overwrite): %w: %w", pgErr.Message, usaccidents.ErrWriteFailed, err)
		}
		return fmt.Errorf("create tables: %w: %w", usaccidents.ErrWriteFailed, err)
	}

	w.logger.Verbose("Created tables %s and %s", usaccidents.CitiesTable, usaccidents.AccidentsTable)
	return nil
}

// WriteLocations copies the locations into cities.
func (w *Writer) WriteLocations(ctx context.Context, locations []usaccidents.Location) (int64, error) {
	src := pgx.CopyFromSlice(len(locations), func(i int) ([]any, error) {
		l := locations[i]
		return []any{l.ID, l.City, l.State, l.County}, nil
	})

	n, err := w.conn.CopyFrom(ctx, pgx.Identifier{usaccidents.CitiesTable}, CityColumns, src)
	if err != nil {
		return n, fmt.Errorf("copy %s: %w: %w", usaccidents.CitiesTable, usaccidents.ErrWriteFailed, err)
	}
	return n, nil
}

// WriteAccidents streams every accident from src into accidents.
// An error from src aborts the COPY and is returned unchanged in the chain.
func (w *Writer) WriteAccidents(ctx context.Context, src AccidentSource) (int64, error) {
	n, err := w.conn.CopyFrom(ctx, pgx.Identifier{usaccidents.AccidentsTable}, AccidentColumns, &accidentCopySource{src: src})
	if err != nil {
		return n, fmt.Errorf("copy %s: %w: %w", usaccidents.AccidentsTable, usaccidents.ErrWriteFailed, err)
	}
	return n, nil
}

// AddConstraints adds the unique city_id constraint and then the foreign key.
// Each statement commits on its own.
func (w *Writer) AddConstraints(ctx context.Context) error {
	steps := []struct {
		name string
		sql  string
	}{
		{UniqueCityIDConstraint, queryAddUniqueCityID},
		{AccidentsFKConstraint, queryAddAccidentsFK},
	}

	for _, step := range steps {
		if _, err := w.conn.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("add constraint %s: %w: %w", step.name, usaccidents.ErrConstraintFailed, err)
		}
		w.logger.Verbose("Added constraint %s", step.name)
	}
	return nil
}

// VerifyRowCount fails with usaccidents.ErrWriteFailed unless table holds want rows.
func (w *Writer) VerifyRowCount(ctx context.Context, table string, want int64) error {
	n, err := w.CountRows(ctx, table)
	if err != nil {
		return fmt.Errorf("%w: %w", usaccidents.ErrWriteFailed, err)
	}
	if n != want {
		return fmt.Errorf("%s holds %d rows, wrote %d: %w", table, n, want, usaccidents.ErrWriteFailed)
	}
	w.logger.Verbose("%s holds %d rows", table, n)
	return nil
}

// CountRows returns the number of rows in table.
func (w *Writer) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	sql := fmt.Sprintf("SELECT count(*) FROM %s", pgx.Identifier{table}.Sanitize())
	if err := w.conn.QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// accidentCopySource adapts an AccidentSource to pgx.CopyFromSource.
type accidentCopySource struct {
	src AccidentSource
}

func (s *accidentCopySource) Next() bool {
	return s.src.Next()
}

func (s *accidentCopySource) Values() ([]any, error) {
	a := s.src.Accident()
	return []any{a.Severity, a.Datetime, a.Lat, a.Lng, a.WeatherCondition, a.CityID}, nil
}

func (s *accidentCopySource) Err() error {
	return s.src.Err()
}
