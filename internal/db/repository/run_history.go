// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"infra-etl/internal/domain"
)

// Compile-time check.
var _ domain.RunRepository = (*RunHistoryRepo)(nil)

// RunHistoryRepo implements domain.RunRepository using the SQLite metastore.
type RunHistoryRepo struct {
	db *sql.DB
}

// NewRunHistoryRepo creates a new RunHistoryRepo.
func NewRunHistoryRepo(db *sql.DB) *RunHistoryRepo {
	return &RunHistoryRepo{db: db}
}

// Insert records a newly started run.
func (r *RunHistoryRepo) Insert(ctx context.Context, run *domain.EtlRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO etl_runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Finish writes a run's terminal status and outcome fields.
func (r *RunHistoryRepo) Finish(ctx context.Context, id string, c domain.RunCompletion) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE etl_runs
		 SET status = ?, finished_at = CURRENT_TIMESTAMP, failed_stage = ?,
		     error_message = ?, record_counts = ?, all_quality_passed = ?
		 WHERE id = ?`,
		c.Status, nullStrFromPtr(c.FailedStage), nullStrFromPtr(c.ErrorMessage),
		nullStrFromPtr(c.RecordCounts), nullBoolFromPtr(c.AllQualityPassed), id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound("run %s not found", id)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *RunHistoryRepo) List(ctx context.Context, limit int) ([]domain.EtlRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, status, started_at, finished_at, failed_stage, error_message,
		        record_counts, all_quality_passed, created_at
		 FROM etl_runs
		 ORDER BY started_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []domain.EtlRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get returns one run by ID.
func (r *RunHistoryRepo) Get(ctx context.Context, id string) (*domain.EtlRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, status, started_at, finished_at, failed_stage, error_message,
		        record_counts, all_quality_passed, created_at
		 FROM etl_runs
		 WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.EtlRun, error) {
	var (
		run         domain.EtlRun
		finishedAt  sql.NullTime
		failedStage sql.NullString
		errMsg      sql.NullString
		counts      sql.NullString
		allPassed   sql.NullBool
	)
	err := row.Scan(&run.ID, &run.Status, &run.StartedAt, &finishedAt, &failedStage,
		&errMsg, &counts, &allPassed, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	run.FailedStage = ptrFromNullStr(failedStage)
	run.ErrorMessage = ptrFromNullStr(errMsg)
	run.RecordCounts = ptrFromNullStr(counts)
	if allPassed.Valid {
		run.AllQualityPassed = &allPassed.Bool
	}
	return &run, nil
}

func nullStrFromPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptrFromNullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullBoolFromPtr(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
