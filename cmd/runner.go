package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotify-etl/internal/repositories"
	"github.com/desertthunder/spotify-etl/internal/services"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/storage"
	"github.com/desertthunder/spotify-etl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil in [RunnerOpts] are built from the loaded configuration on first use.
type Runner struct {
	config     *shared.Config
	configured bool
	envPath    string
	logger     *log.Logger
	output     io.Writer
	store      storage.Store
	spotify    services.Service
	runs       *repositories.RunRepository
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config // when set, the --config flag and environment are ignored
	EnvPath string         // dotenv file read before the config is applied (default: .env)
	Logger  *log.Logger
	Output  io.Writer
	Store   storage.Store
	Spotify services.Service
	Runs    *repositories.RunRepository
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{
		config:     opts.Config,
		configured: opts.Config != nil,
		envPath:    opts.EnvPath,
		logger:     opts.Logger,
		output:     opts.Output,
		store:      opts.Store,
		spotify:    opts.Spotify,
		runs:       opts.Runs,
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if r.envPath == "" {
		r.envPath = ".env"
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	return r
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		extractCommand, transformCommand, pipelineCommand, inspectCommand, setupCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure loads the dotenv file and the config at path, then applies environment overrides.
//
// A missing config file falls back to the embedded defaults.
func (r *Runner) configure(path string) error {
	if r.configured {
		return nil
	}
	r.configured = true

	if err := shared.LoadEnv(r.envPath); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	r.config.ApplyEnv()
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	return nil
}

// openStore returns the configured object store, creating it on first use.
func (r *Runner) openStore(ctx context.Context) (storage.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	cfg := r.config.Storage
	switch cfg.Backend {
	case "s3":
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:         cfg.Bucket,
			Region:         cfg.Region,
			Endpoint:       cfg.Endpoint,
			ForcePathStyle: cfg.ForcePathStyle,
		})
		if err != nil {
			return nil, err
		}
		r.logger.Debug("using s3 storage", "bucket", cfg.Bucket)
		r.store = store
	default:
		store, err := storage.NewLocalStore(cfg.Root)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("using local storage", "root", store.Root())
		r.store = store
	}
	return r.store, nil
}

// openService returns the Spotify client, creating it from the configured credentials on first use.
func (r *Runner) openService() (services.Service, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}
	svc, err := services.NewSpotifyService(r.config.Spotify)
	if err != nil {
		return nil, err
	}
	r.spotify = svc
	return r.spotify, nil
}

// openRuns returns the run history repository, opening and migrating the database on first use.
func (r *Runner) openRuns() (*repositories.RunRepository, error) {
	if r.runs != nil {
		return r.runs, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.runs = repositories.NewRunRepository(db)
	return r.runs, nil
}

// Close releases the database opened by the runner, if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// transformer builds a Transformer over the configured store. Runs are recorded when record is set.
func (r *Runner) transformer(ctx context.Context, dryRun, record bool) (*tasks.Transformer, error) {
	store, err := r.openStore(ctx)
	if err != nil {
		return nil, err
	}

	cfg := r.config.Storage
	t := tasks.NewTransformer(store, tasks.TransformerOpts{
		RawPrefix:         cfg.RawPrefix,
		ProcessedPrefix:   cfg.ProcessedPrefix,
		TransformedPrefix: cfg.TransformedPrefix,
		RawExtension:      cfg.RawExtension,
		OutputExtension:   cfg.OutputExtension,
		DryRun:            dryRun,
	}, r.logger)

	if !record {
		return t, nil
	}
	if runs, err := r.openRuns(); err != nil {
		r.logger.Warn("run history disabled", "error", err)
	} else {
		t.SetRecorder(runs)
	}
	return t, nil
}

func (r *Runner) extractor(ctx context.Context, playlistURL string) (*tasks.Extractor, error) {
	store, err := r.openStore(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := r.openService()
	if err != nil {
		return nil, err
	}

	if playlistURL == "" {
		playlistURL = r.config.Spotify.PlaylistURL
	}
	return tasks.NewExtractor(svc, store, tasks.ExtractorOpts{
		PlaylistURL: playlistURL,
		RawPrefix:   r.config.Storage.RawPrefix,
	}, r.logger), nil
}

// printProgress writes progress updates until the channel is closed, then closes done.
func (r *Runner) printProgress(progressCh <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progressCh {
		switch update.Phase {
		case tasks.FetchPlaylist, tasks.ListDocuments:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.WriteRaw:
			r.writePlain("📝 %s\n", update.Message)
		case tasks.ProcessDocument:
			if _, ok := update.Data.(tasks.DocumentResult); ok {
				r.writePlain("   %s\n", update.Message)
			}
		case tasks.ArchiveDocument:
			r.writePlain("📦 %s\n", update.Message)
		}
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
