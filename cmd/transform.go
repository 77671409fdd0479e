package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotify-etl/internal/formatter"
	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Transform runs the transformer over every pending raw document.
func (r *Runner) Transform(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("tui") {
		return r.TUI(ctx, cmd.Bool("dry-run"))
	}
	if cmd.Bool("json") {
		return r.transformJSON(ctx, cmd.Bool("dry-run"))
	}
	return r.transform(ctx, cmd.Bool("dry-run"))
}

func (r *Runner) transform(ctx context.Context, dryRun bool) error {
	t, err := r.transformer(ctx, dryRun, true)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progressCh, done)

	result, err := t.Run(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writeSummary(result)
	return runError(result)
}

func (r *Runner) transformJSON(ctx context.Context, dryRun bool) error {
	t, err := r.transformer(ctx, dryRun, true)
	if err != nil {
		return err
	}

	result, err := t.Run(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.writeJSON(result.Summary(), true); err != nil {
		return err
	}
	return runError(result)
}

// runFailure is returned once the summary of a run with failures has been printed.
type runFailure struct {
	result *tasks.RunResult
}

func (e *runFailure) Error() string {
	archiveFailures := 0
	for _, doc := range e.result.Documents {
		if doc.ArchiveErr != nil {
			archiveFailures++
		}
	}
	return fmt.Sprintf("%v: %d of %d documents failed, %d archivals failed",
		shared.ErrRunFailed, e.result.Failed(), len(e.result.Documents), archiveFailures)
}

func (e *runFailure) Unwrap() []error {
	return []error{shared.ErrRunFailed, e.result.Err()}
}

// runError reports any document or archival failure of result.
func runError(result *tasks.RunResult) error {
	if result.Err() == nil {
		return nil
	}
	return &runFailure{result: result}
}

func (r *Runner) writeSummary(result *tasks.RunResult) {
	r.writePlain("\n")
	if result.DryRun {
		r.writePlainHeader("Dry Run Complete (nothing written)")
	} else {
		r.writePlainHeader("Transform Complete!")
	}
	r.writePlain("Run: %s\n", result.ID)
	r.writePlain("Documents: %d listed, %d succeeded, %d failed, %d archived\n",
		len(result.Listed), result.Succeeded(), result.Failed(), result.Archived())

	var total models.TableCounts
	for _, doc := range result.Documents {
		total.Albums += doc.After.Albums
		total.Artists += doc.After.Artists
		total.Songs += doc.After.Songs
	}
	r.writePlain("Rows: %d albums, %d artists, %d songs\n", total.Albums, total.Artists, total.Songs)

	if result.Err() == nil {
		return
	}

	r.writePlain("\nFailures:\n")
	for _, doc := range result.Documents {
		if doc.Err != nil {
			r.writePlain("  ✗ %v\n", doc.Err)
		}
		if doc.ArchiveErr != nil {
			r.writePlain("  ✗ %v (raw document left pending)\n", doc.ArchiveErr)
		}
	}
}

// Inspect prints the tables one raw document would produce.
func (r *Runner) Inspect(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}

	t, err := r.transformer(ctx, true, false)
	if err != nil {
		return err
	}

	tables, before, err := t.Inspect(ctx, key)
	if err != nil {
		return err
	}

	if name := cmd.String("table"); name != "" {
		data, err := formatter.Export(models.Table(name), tables)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	return r.writePlain("%s", formatter.ExportToText(key, tables, before, int(cmd.Int("limit"))))
}
