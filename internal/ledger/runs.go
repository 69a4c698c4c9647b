package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/vaultpress/internal/models"
)

// StartRun records the beginning of a command invocation.
func (db *DB) StartRun(command string) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: time.Now().UTC(),
	}
	_, err := db.conn.Exec(`INSERT INTO runs (id, command, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Command, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("ledger: start run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final counters of run and stamps its finish time.
func (db *DB) FinishRun(run *models.Run) error {
	run.FinishedAt = time.Now().UTC()
	_, err := db.conn.Exec(`
		UPDATE runs SET finished_at = ?, converted = ?, skipped = ?, failed = ?
		WHERE id = ?
	`, run.FinishedAt, run.Converted, run.Skipped, run.Failed, run.ID)
	if err != nil {
		return fmt.Errorf("ledger: finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, command, started_at, finished_at, converted, skipped, failed
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list runs: %w", err)
	}
	defer rows.Close()

	var out []models.Run
	for rows.Next() {
		var (
			r        models.Run
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Command, &r.StartedAt, &finished, &r.Converted, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
