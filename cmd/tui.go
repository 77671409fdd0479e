package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/ui"
)

// TUI lists the pending documents, asks for confirmation and follows the run interactively.
func (r *Runner) TUI(ctx context.Context, dryRun bool) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/spotify-etl-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	t, err := r.transformer(ctx, dryRun, true)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, t)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if result, err := model.Result(); err != nil {
		return err
	} else if result != nil {
		r.writeSummary(result)
		return runError(result)
	}
	return nil
}
