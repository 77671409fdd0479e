package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/tasks"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRun(id string, started time.Time) *tasks.RunResult {
	return &tasks.RunResult{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Listed:     []string{"raw/a.json", "raw/b.json", "raw/c.json"},
		Documents: []tasks.DocumentResult{
			{
				Key:        "raw/a.json",
				OutputKeys: []string{"out/song_data/s.csv", "out/album_data/a.csv", "out/artist_data/r.csv"},
				Before:     models.TableCounts{Albums: 3, Artists: 4, Songs: 4},
				After:      models.TableCounts{Albums: 2, Artists: 3, Songs: 3},
				Archived:   true,
			},
			{
				Key: "raw/b.json",
				Err: &tasks.StageError{Key: "raw/b.json", Stage: tasks.StageNormalize, Err: shared.ErrDateParse},
			},
			{
				Key:        "raw/c.json",
				OutputKeys: []string{"out/song_data/s2.csv"},
				After:      models.TableCounts{Albums: 1, Artists: 1, Songs: 1},
				ArchiveErr: &tasks.StageError{Key: "raw/c.json", Stage: tasks.StageArchiveDelete, Err: shared.ErrStorage},
			},
		},
	}
}

func TestRunRepository(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("SaveRun and Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		if err := repo.SaveRun(ctx, sampleRun("run-1", started)); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		run, err := repo.Get(ctx, "run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if run.Listed != 3 || run.Succeeded != 2 || run.Failed != 1 || run.Archived != 1 {
			t.Errorf("unexpected run totals %+v", run)
		}
		if !run.StartedAt.Equal(started) {
			t.Errorf("expected started_at %v, got %v", started, run.StartedAt)
		}
		if run.Duration() != 2*time.Second {
			t.Errorf("expected 2s duration, got %v", run.Duration())
		}
		if len(run.Documents) != 3 {
			t.Fatalf("expected 3 documents, got %d", len(run.Documents))
		}

		ok := run.Documents[0]
		if ok.SourceKey != "raw/a.json" || !ok.Archived || ok.Stage != "" || ok.Error != "" {
			t.Errorf("unexpected successful document %+v", ok)
		}
		if len(ok.OutputKeys) != 3 || ok.OutputKeys[1] != "out/album_data/a.csv" {
			t.Errorf("unexpected output keys %v", ok.OutputKeys)
		}
		if ok.Counts != (models.TableCounts{Albums: 2, Artists: 3, Songs: 3}) {
			t.Errorf("unexpected counts %+v", ok.Counts)
		}
		if ok.Before != (models.TableCounts{Albums: 3, Artists: 4, Songs: 4}) {
			t.Errorf("unexpected pre-dedup counts %+v", ok.Before)
		}

		failed := run.Documents[1]
		if failed.Stage != "normalize" || failed.Error == "" || failed.OutputKeys != nil {
			t.Errorf("unexpected failed document %+v", failed)
		}

		unarchived := run.Documents[2]
		if unarchived.Stage != "archive_delete" || unarchived.ArchiveError == "" || unarchived.Archived {
			t.Errorf("unexpected unarchived document %+v", unarchived)
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		_, err := repo.Get(ctx, "nope")
		if !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		for i, id := range []string{"old", "middle", "new"} {
			run := sampleRun(id, started.Add(time.Duration(i)*time.Hour))
			if err := repo.SaveRun(ctx, run); err != nil {
				t.Fatalf("failed to save run %s: %v", id, err)
			}
		}

		runs, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != "new" || runs[1].ID != "middle" {
			t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
		}
		if runs[0].Documents != nil {
			t.Error("List should not load documents")
		}
	})

	t.Run("Duplicate Run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		if err := repo.SaveRun(ctx, sampleRun("dup", started)); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if err := repo.SaveRun(ctx, sampleRun("dup", started)); err == nil {
			t.Error("expected error saving a run twice")
		}

		run, err := repo.Get(ctx, "dup")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if len(run.Documents) != 3 {
			t.Errorf("failed save must not leave partial documents, got %d", len(run.Documents))
		}
	})

	t.Run("Unfinished Run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := &tasks.RunResult{ID: "listing-failed", StartedAt: started}
		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		got, err := repo.Get(ctx, "listing-failed")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if !got.FinishedAt.IsZero() || got.Duration() != 0 {
			t.Errorf("expected no finish time, got %v", got.FinishedAt)
		}
		if len(got.Documents) != 0 {
			t.Errorf("expected no documents, got %d", len(got.Documents))
		}
	})

	t.Run("Invalid Run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		if err := repo.SaveRun(ctx, &tasks.RunResult{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Records Transformer Runs", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		var recorder tasks.RunRecorder = repo

		if err := recorder.SaveRun(ctx, sampleRun("via-interface", started)); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if _, err := repo.Get(ctx, "via-interface"); err != nil {
			t.Errorf("expected run to be stored, got %v", err)
		}
	})
}
