package testing

import (
	"context"

	"github.com/desertthunder/spotify-etl/internal/models"
)

// MockService is a [services.Service] returning a fixed playlist document.
type MockService struct {
	Doc             *models.PlaylistDocument
	AuthenticateErr error
	TracksErr       error
	Requested       []string
}

func (m *MockService) Name() string {
	return "Mock"
}

func (m *MockService) Authenticate(ctx context.Context) error {
	return m.AuthenticateErr
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string) (*models.PlaylistDocument, error) {
	m.Requested = append(m.Requested, playlistID)
	if m.TracksErr != nil {
		return nil, m.TracksErr
	}
	return m.Doc, nil
}
