package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wesm/stack-digest/internal/models"
)

// ErrRunNotFound is returned when no ingestion run has the requested id
var ErrRunNotFound = errors.New("ingestion run not found")

// CreateRun records the start of an ingestion run
func (db *DB) CreateRun(ctx context.Context, run *models.IngestRun) error {
	query := `
	INSERT INTO ingest_runs (id, started_at, requested, status)
	VALUES (?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query, run.ID, run.StartedAt, run.Requested, run.Status)
	if err != nil {
		return fmt.Errorf("failed to create ingestion run: %w", err)
	}
	return nil
}

// FinishRun stores the final counts and status of an ingestion run
func (db *DB) FinishRun(ctx context.Context, run *models.IngestRun) error {
	query := `
	UPDATE ingest_runs SET
		finished_at = ?,
		fetched = ?,
		succeeded = ?,
		failed = ?,
		status = ?,
		error = ?
	WHERE id = ?
	`

	_, err := db.ExecContext(ctx, query,
		run.FinishedAt,
		run.Fetched,
		run.Succeeded,
		run.Failed,
		run.Status,
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish ingestion run: %w", err)
	}
	return nil
}

// GetRun gets an ingestion run by id
func (db *DB) GetRun(ctx context.Context, id string) (*models.IngestRun, error) {
	query := `
	SELECT id, started_at, finished_at, requested, fetched, succeeded, failed, status, COALESCE(error, '')
	FROM ingest_runs WHERE id = ?
	`

	var (
		run      models.IngestRun
		finished sql.NullTime
	)
	err := db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.StartedAt, &finished, &run.Requested, &run.Fetched,
		&run.Succeeded, &run.Failed, &run.Status, &run.Error,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get ingestion run: %w", err)
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = nullTime(finished)

	return &run, nil
}
