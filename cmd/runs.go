package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/urfave/cli/v3"
)

// RunsList prints the most recent transformer runs.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.openRuns()
	if err != nil {
		return err
	}

	runs, err := repo.List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded yet\n")
		return nil
	}

	r.writePlain("%-36s  %-20s  %8s  %6s  %6s  %8s\n", "ID", "STARTED", "DURATION", "OK", "FAILED", "ARCHIVED")
	for _, run := range runs {
		dry := ""
		if run.DryRun {
			dry = " (dry run)"
		}
		r.writePlain("%-36s  %-20s  %8s  %6d  %6d  %8d%s\n",
			run.ID,
			run.StartedAt.Format(time.DateTime),
			run.Duration().Round(time.Millisecond),
			run.Succeeded,
			run.Failed,
			run.Archived,
			dry,
		)
	}
	return nil
}

// RunsShow prints one run and the outcome of each of its documents.
func (r *Runner) RunsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	repo, err := r.openRuns()
	if err != nil {
		return err
	}

	run, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(run, true)
	}

	r.writePlainHeader("Run " + run.ID)
	r.writePlain("Started:   %s\n", run.StartedAt.Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		r.writePlain("Finished:  %s (%s)\n", run.FinishedAt.Format(time.RFC3339), run.Duration().Round(time.Millisecond))
	}
	r.writePlain("Dry run:   %t\n", run.DryRun)
	r.writePlain("Documents: %d listed, %d succeeded, %d failed, %d archived\n\n",
		run.Listed, run.Succeeded, run.Failed, run.Archived)

	for i, doc := range run.Documents {
		status := "✓"
		if doc.Error != "" {
			status = "✗"
		}
		r.writePlain("%d. %s %s\n", i+1, status, doc.SourceKey)
		if doc.Error != "" {
			r.writePlain("   failed at %s: %s\n", doc.Stage, doc.Error)
			continue
		}
		r.writePlain("   %d albums, %d artists, %d songs\n", doc.Counts.Albums, doc.Counts.Artists, doc.Counts.Songs)
		if doc.Before != doc.Counts {
			r.writePlain("   %d albums, %d artists, %d songs before dedup\n",
				doc.Before.Albums, doc.Before.Artists, doc.Before.Songs)
		}
		for _, key := range doc.OutputKeys {
			r.writePlain("   → %s\n", key)
		}
		if doc.ArchiveError != "" {
			r.writePlain("   archive failed: %s\n", doc.ArchiveError)
		} else if doc.Archived {
			r.writePlain("   archived\n")
		}
	}
	return nil
}
