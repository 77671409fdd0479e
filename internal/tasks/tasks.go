// package tasks implements the extract and transform stages of the playlist pipeline.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
)

// Stage names the step of the per-document pipeline that failed.
type Stage string

const (
	StageList          Stage = "list"
	StageRead          Stage = "read"
	StageDecode        Stage = "decode"
	StageDecompose     Stage = "decompose"
	StageNormalize     Stage = "normalize"
	StageVerify        Stage = "verify"
	StageSerialize     Stage = "serialize"
	StageWrite         Stage = "write"
	StageArchiveCopy   Stage = "archive_copy"
	StageArchiveDelete Stage = "archive_delete"
)

// StageError is a document failure with the key and stage that produced it.
type StageError struct {
	Key   string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Key, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// DocumentResult is the outcome of transforming one raw document.
type DocumentResult struct {
	Key        string             // Pending raw key
	Stamp      string             // Identifier shared by the three output keys
	OutputKeys []string           // Written (or planned, on dry runs) output keys
	Before     models.TableCounts // Row counts before dedup
	After      models.TableCounts // Row counts after dedup
	Err        error              // Processing failure, nil on success
	Archived   bool               // Raw object moved to the processed prefix
	ArchiveErr error              // Archival failure, nil when not attempted or successful
}

// RunResult contains all data from one transformer run.
type RunResult struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Listed     []string // Pending keys with the raw extension, in processing order
	Documents  []DocumentResult
}

// Succeeded counts documents whose three outputs were written.
func (r *RunResult) Succeeded() int {
	n := 0
	for _, d := range r.Documents {
		if d.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts documents that failed before archival.
func (r *RunResult) Failed() int {
	return len(r.Documents) - r.Succeeded()
}

// Archived counts documents moved to the processed prefix.
func (r *RunResult) Archived() int {
	n := 0
	for _, d := range r.Documents {
		if d.Archived {
			n++
		}
	}
	return n
}

// Err joins every document and archival failure of the run.
func (r *RunResult) Err() error {
	var errs []error
	for _, d := range r.Documents {
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
		if d.ArchiveErr != nil {
			errs = append(errs, d.ArchiveErr)
		}
	}
	return errors.Join(errs...)
}

// Summary flattens the run into its persisted form.
func (r *RunResult) Summary() models.Run {
	run := models.Run{
		ID:         r.ID,
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		Listed:     len(r.Listed),
		Succeeded:  r.Succeeded(),
		Failed:     r.Failed(),
		Archived:   r.Archived(),
		DryRun:     r.DryRun,
		Documents:  make([]models.RunDocument, 0, len(r.Documents)),
	}
	for _, d := range r.Documents {
		stage, _ := StageOf(d.Err)
		if d.Err == nil {
			stage, _ = StageOf(d.ArchiveErr)
		}
		run.Documents = append(run.Documents, models.RunDocument{
			SourceKey:    d.Key,
			Stage:        string(stage),
			Error:        errorText(d.Err),
			Before:       d.Before,
			Counts:       d.After,
			OutputKeys:   d.OutputKeys,
			Archived:     d.Archived,
			ArchiveError: errorText(d.ArchiveErr),
		})
	}
	return run
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// RunRecorder persists run outcomes. Implemented by repositories.RunRepository.
type RunRecorder interface {
	SaveRun(ctx context.Context, result *RunResult) error
}
