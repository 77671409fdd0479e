// package services defines interface Service for reading playlists from a music provider's HTTP API
package services

import (
	"context"

	"github.com/desertthunder/spotify-etl/internal/models"
)

// Service defines the interface for music service providers that can return the full track listing of a playlist.
type Service interface {
	// Authenticate obtains an access token for subsequent requests.
	Authenticate(ctx context.Context) error

	// PlaylistTracks retrieves every item of a playlist, following pagination,
	// merged into a single document.
	PlaylistTracks(ctx context.Context, playlistID string) (*models.PlaylistDocument, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
