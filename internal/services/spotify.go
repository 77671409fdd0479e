// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultPageSize  = 100
	defaultRateLimit = 5.0
)

// SpotifyService implements the Service interface for Spotify API interactions.
type SpotifyService struct {
	config     *clientcredentials.Config
	baseURL    string
	pageSize   int
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service from the [spotify] config section.
func NewSpotifyService(cfg shared.SpotifyConfig) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}

	return &SpotifyService{
		config: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
		},
		baseURL:  baseURL,
		pageSize: pageSize,
		limiter:  rate.NewLimiter(rate.Limit(limit), 1),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate fetches an app access token with the client credentials grant.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	ts := s.config.TokenSource(ctx)
	token, err := ts.Token()
	if err != nil {
		return fmt.Errorf("%w: failed to fetch token: %v", shared.ErrNotAuthenticated, err)
	}
	s.httpClient = oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, ts))
	return nil
}

// doRequest performs an authenticated, rate limited GET against the Spotify API.
//
// endpoint is either a path relative to the base URL or an absolute URL returned by a previous page.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrPlaylistNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PlaylistTracks retrieves every item of the playlist, following next links until exhausted.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) (*models.PlaylistDocument, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: empty playlist ID", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), s.pageSize)

	var doc *models.PlaylistDocument
	for endpoint != "" {
		var page models.PlaylistDocument
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("playlist %s: %w", playlistID, err)
		}

		if doc == nil {
			doc = &models.PlaylistDocument{Href: page.Href, Total: page.Total, Limit: page.Limit}
		}
		doc.Items = append(doc.Items, page.Items...)

		endpoint = ""
		if page.Next != nil {
			endpoint = *page.Next
		}
	}
	return doc, nil
}

// PlaylistID extracts the playlist ID from an open.spotify.com URL, a spotify:playlist: URI or a bare ID.
func PlaylistID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty playlist URL", shared.ErrInvalidInput)
	}

	if id, ok := strings.CutPrefix(raw, "spotify:playlist:"); ok && id != "" {
		return id, nil
	}
	if !strings.Contains(raw, "/") && !strings.Contains(raw, ":") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "playlist" && i+1 < len(segments) && segments[i+1] != "" {
			return segments[i+1], nil
		}
	}
	return "", fmt.Errorf("%w: no playlist ID in %q", shared.ErrInvalidInput, raw)
}
