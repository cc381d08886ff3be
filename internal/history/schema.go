package history

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		task_name TEXT NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		notifiers_attempted INTEGER NOT NULL DEFAULT 0,
		notifiers_delivered INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_task_started
		ON runs(task_name, started_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
