package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotify-etl/internal/services"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/storage"
)

// ExtractorOpts configures where the extractor reads from and writes to.
type ExtractorOpts struct {
	PlaylistURL string // open.spotify.com playlist URL, spotify: URI or bare ID
	RawPrefix   string // Pending raw documents
}

// Extractor fetches a playlist snapshot and writes it as one pending raw document.
type Extractor struct {
	svc    services.Service
	store  storage.Writer
	opts   ExtractorOpts
	logger *log.Logger
	now    func() time.Time
}

// NewExtractor creates an Extractor writing to store.
func NewExtractor(svc services.Service, store storage.Writer, opts ExtractorOpts, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Extractor{svc: svc, store: store, opts: opts, logger: logger, now: time.Now}
}

// RawKey builds the key of a raw document extracted at t.
func RawKey(prefix string, t time.Time) string {
	return storage.Join(prefix, fmt.Sprintf("spotify_raw_%s.json", t.UTC().Format(stampLayout)))
}

// Extract authenticates, fetches every page of the playlist and writes the merged document.
// It returns the written key.
func (e *Extractor) Extract(ctx context.Context, progress chan<- ProgressUpdate) (string, error) {
	if e.svc == nil {
		return "", fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	id, err := services.PlaylistID(e.opts.PlaylistURL)
	if err != nil {
		return "", err
	}
	logger := shared.WithLogger(e.logger, "playlist_id", id)

	if err := e.svc.Authenticate(ctx); err != nil {
		return "", fmt.Errorf("failed to authenticate with %s: %w", e.svc.Name(), err)
	}

	sendProgress(progress, fetchPlaylistUpdate(id))
	doc, err := e.svc.PlaylistTracks(ctx, id)
	if err != nil {
		return "", err
	}
	logger.Info("fetched playlist", "items", len(doc.Items), "total", doc.Total)

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode playlist document: %w", err)
	}

	key := RawKey(e.opts.RawPrefix, e.now())
	sendProgress(progress, writeRawUpdate(key, len(doc.Items)))
	if err := e.store.Write(ctx, key, data); err != nil {
		return "", err
	}

	logger.Info("wrote raw document", "key", key, "bytes", len(data))
	return key, nil
}
