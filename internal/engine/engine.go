// Package engine wraps the embedded DuckDB analytic engine behind a
// session type owned by the pipeline orchestrator.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2" // database/sql driver
)

// Session owns one DuckDB database handle for the duration of a pipeline
// run. All stages share the session; it is acquired at run start and
// released exactly once via Close regardless of exit path.
type Session struct {
	db        *sql.DB
	path      string
	closeOnce sync.Once
	closeErr  error
}

// Open opens a DuckDB database at path, creating parent directories as
// needed. An empty path or ":memory:" opens an in-memory database.
func Open(path string) (*Session, error) {
	if path == ":memory:" {
		path = ""
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &Session{db: db, path: path}, nil
}

// Close releases the database handle. Safe to call more than once; only
// the first call closes.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Exec executes a statement that returns no rows.
func (s *Session) Exec(ctx context.Context, query string, args ...interface{}) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("execute statement: %w", err)
	}
	return nil
}

// Query executes a query and returns the rows. The caller owns the rows.
func (s *Session) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	return rows, nil
}

// QueryRow executes a query expected to return at most one row.
func (s *Session) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// ReadCSVInto loads a CSV file into the named relation with inferred
// column types, replacing any prior contents.
func (s *Session) ReadCSVInto(ctx context.Context, relation, csvPath string) error {
	q := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s)",
		QuoteIdent(relation), QuoteLiteral(csvPath),
	)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("read csv into %s: %w", relation, err)
	}
	return nil
}

// TableExists reports whether a table or view with the given name exists.
func (s *Session) TableExists(ctx context.Context, relation string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?",
		relation,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", relation, err)
	}
	return n > 0, nil
}

// ColumnNames returns the relation's column names in ordinal order.
func (s *Session) ColumnNames(ctx context.Context, relation string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position",
		relation,
	)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", relation, err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// Count returns the relation's row count.
func (s *Session) Count(ctx context.Context, relation string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(relation)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", relation, err)
	}
	return n, nil
}

// ExportParquet writes the relation to a Parquet file, overwriting any
// existing file.
func (s *Session) ExportParquet(ctx context.Context, relation, path string) error {
	q := fmt.Sprintf("COPY %s TO %s (FORMAT PARQUET)", QuoteIdent(relation), QuoteLiteral(path))
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("export %s to parquet: %w", relation, err)
	}
	return nil
}

// ExportCSV writes the relation to a CSV file with a header row,
// overwriting any existing file.
func (s *Session) ExportCSV(ctx context.Context, relation, path string) error {
	q := fmt.Sprintf("COPY %s TO %s (FORMAT CSV, HEADER)", QuoteIdent(relation), QuoteLiteral(path))
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("export %s to csv: %w", relation, err)
	}
	return nil
}

// QuoteIdent quotes a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a SQL string literal.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
