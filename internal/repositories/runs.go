// package repositories provides persistence layer implementations for run history.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/tasks"
)

const outputKeySeparator = "\n"

// RunRepository persists transformer runs.
type RunRepository struct {
	db *sql.DB
}

var _ tasks.RunRecorder = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun inserts a run and all of its document outcomes in one transaction.
func (r *RunRepository) SaveRun(ctx context.Context, result *tasks.RunResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("%w: run has no id", shared.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	run := result.Summary()

	query := `
		INSERT INTO runs (id, started_at, finished_at, listed, succeeded, failed, archived, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		run.ID,
		run.StartedAt,
		nullTime(run.FinishedAt),
		run.Listed,
		run.Succeeded,
		run.Failed,
		run.Archived,
		run.DryRun,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	docQuery := `
		INSERT INTO run_documents (
			run_id, source_key, stage, error, albums, artists, songs,
			albums_before, artists_before, songs_before, archived, archive_error, output_keys
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, doc := range run.Documents {
		_, err := tx.ExecContext(ctx, docQuery,
			run.ID,
			doc.SourceKey,
			doc.Stage,
			doc.Error,
			doc.Counts.Albums,
			doc.Counts.Artists,
			doc.Counts.Songs,
			doc.Before.Albums,
			doc.Before.Artists,
			doc.Before.Songs,
			doc.Archived,
			doc.ArchiveError,
			strings.Join(doc.OutputKeys, outputKeySeparator),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run document %s: %w", doc.SourceKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first, without their documents.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, started_at, finished_at, listed, succeeded, failed, archived, dry_run
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Get retrieves a run by ID with its documents in processing order.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT id, started_at, finished_at, listed, succeeded, failed, archived, dry_run
		FROM runs
		WHERE id = ?
	`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	docs, err := r.documents(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Documents = docs
	return run, nil
}

func (r *RunRepository) documents(ctx context.Context, runID string) ([]models.RunDocument, error) {
	query := `
		SELECT source_key, stage, error, albums, artists, songs,
			albums_before, artists_before, songs_before, archived, archive_error, output_keys
		FROM run_documents
		WHERE run_id = ?
		ORDER BY rowid
	`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run documents: %w", err)
	}
	defer rows.Close()

	var docs []models.RunDocument
	for rows.Next() {
		var (
			doc        models.RunDocument
			outputKeys string
		)
		err := rows.Scan(
			&doc.SourceKey,
			&doc.Stage,
			&doc.Error,
			&doc.Counts.Albums,
			&doc.Counts.Artists,
			&doc.Counts.Songs,
			&doc.Before.Albums,
			&doc.Before.Artists,
			&doc.Before.Songs,
			&doc.Archived,
			&doc.ArchiveError,
			&outputKeys,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run document: %w", err)
		}
		if outputKeys != "" {
			doc.OutputKeys = strings.Split(outputKeys, outputKeySeparator)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run documents: %w", err)
	}
	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run      models.Run
		finished sql.NullTime
	)
	err := s.Scan(
		&run.ID,
		&run.StartedAt,
		&finished,
		&run.Listed,
		&run.Succeeded,
		&run.Failed,
		&run.Archived,
		&run.DryRun,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
