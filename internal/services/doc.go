// Package services defines the [Service] interface for music streaming providers and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] authenticates with the OAuth2 client credentials flow. The
// [clientcredentials.Config] token source fetches a new token when the current one expires.
//
// Requests pass through a [rate.Limiter] so paging through a large playlist stays under the API rate limit.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : client id or secret not configured
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrPlaylistNotFound] : Playlist ID not found
//   - [shared.ErrInvalidInput] : playlist URL has no playlist ID
//
// # API Mappings
//
// Playlist track pages decode directly into [models.PlaylistDocument]; pages are
// concatenated so downstream stages see one document per playlist snapshot.
package services
