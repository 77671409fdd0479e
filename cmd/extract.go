package main

import (
	"context"

	"github.com/desertthunder/spotify-etl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Extract fetches the playlist and writes it under the raw prefix.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	_, err := r.extract(ctx, cmd.String("playlist"))
	return err
}

// Pipeline extracts the playlist, then transforms every pending document including the new one.
func (r *Runner) Pipeline(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.extract(ctx, cmd.String("playlist")); err != nil {
		return err
	}
	r.writePlain("\n")
	return r.transform(ctx, cmd.Bool("dry-run"))
}

func (r *Runner) extract(ctx context.Context, playlistURL string) (string, error) {
	extractor, err := r.extractor(ctx, playlistURL)
	if err != nil {
		return "", err
	}

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go r.printProgress(progressCh, done)

	key, err := extractor.Extract(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return "", err
	}

	r.writePlain("✓ Raw document written: %s\n", key)
	return key, nil
}
