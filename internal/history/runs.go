package history

import (
	"context"
	"database/sql"
	"fmt"
)

// RecordStart saves the beginning of a run.
// Uses ON CONFLICT to make recording idempotent.
func (s *SQLiteStore) RecordStart(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, task_name, source, status, error, notifiers_attempted, notifiers_delivered, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			task_name = excluded.task_name,
			source = excluded.source,
			status = excluded.status,
			started_at = excluded.started_at
	`, run.ID, run.TaskName, run.Source, run.Status, run.Error, run.Attempted, run.Delivered, run.StartedAt)

	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// RecordFinish updates a run with its outcome.
func (s *SQLiteStore) RecordFinish(ctx context.Context, runID, status, errText string, attempted, delivered int) error {
	// Begin transaction with serializable isolation (BEGIN IMMEDIATE)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, error = ?, notifiers_attempted = ?, notifiers_delivered = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, errText, attempted, delivered, runID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}

	// Check the run exists
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RecentRuns returns the most recent runs across all tasks, newest first.
// A non-positive limit defaults to 50.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_name, source, status, error, notifiers_attempted, notifiers_delivered, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// TaskRuns returns the most recent runs of one task, newest first.
// A non-positive limit defaults to 50.
func (s *SQLiteStore) TaskRuns(ctx context.Context, taskName string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_name, source, status, error, notifiers_attempted, notifiers_delivered, started_at, finished_at
		FROM runs
		WHERE task_name = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, taskName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs for task %s: %w", taskName, err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var run Run
		var errText sql.NullString
		var finished sql.NullTime

		err := rows.Scan(&run.ID, &run.TaskName, &run.Source, &run.Status, &errText, &run.Attempted, &run.Delivered, &run.StartedAt, &finished)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if errText.Valid {
			run.Error = errText.String
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
