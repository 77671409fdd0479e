package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := runner.app()

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.Close()
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		if errors.Is(err, shared.ErrRunFailed) {
			// failures were already listed in the run summary
			logger.Error(err.Error())
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// app builds the root command. The --config flag is resolved before any subcommand runs.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "spotify-etl",
		Usage:   "Extract Spotify playlists and transform them into album, artist and song tables",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (TOML or YAML)",
				Value:   "config.toml",
				Sources: cli.EnvVars("ETL_CONFIG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, r.configure(cmd.String("config"))
		},
		Commands: r.register(),
	}
}
