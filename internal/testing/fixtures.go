package testing

import (
	"github.com/desertthunder/spotify-etl/internal/models"
)

// Artist builds an artist reference with provider-style URLs.
func Artist(id, name string) models.Artist {
	return models.Artist{
		ID:           id,
		Name:         name,
		Href:         "https://api.spotify.com/v1/artists/" + id,
		ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/artist/" + id},
	}
}

// Album builds an album reference credited to artists.
func Album(id, name, releaseDate string, artists ...models.Artist) *models.Album {
	return &models.Album{
		ID:           id,
		Name:         name,
		ReleaseDate:  releaseDate,
		TotalTracks:  12,
		ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/album/" + id},
		Artists:      artists,
	}
}

// Item builds a playlist item for a track performed by artists.
func Item(trackID, name, addedAt string, album *models.Album, artists ...models.Artist) models.PlaylistItem {
	return models.PlaylistItem{
		AddedAt: addedAt,
		Track: &models.Track{
			ID:           trackID,
			Name:         name,
			Popularity:   80,
			DurationMS:   200000,
			ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/track/" + trackID},
			Album:        album,
			Artists:      artists,
		},
	}
}

// Document wraps items in a playlist document.
func Document(items ...models.PlaylistItem) *models.PlaylistDocument {
	return &models.PlaylistDocument{Items: items, Total: len(items)}
}

// SampleDocument returns a two-item document: the first track has one artist,
// the second has two (a feature) on an album credited to its first performer.
func SampleDocument() *models.PlaylistDocument {
	solo := Artist("ar1", "Solo Artist")
	lead := Artist("ar2", "Lead Artist")
	feat := Artist("ar3", "Featured, Artist")

	return Document(
		Item("tr1", "First Song", "2023-05-12T10:00:00Z", Album("al1", "First Album", "2023-05-01", solo), solo),
		Item("tr2", "Second Song", "2023-05-13T08:30:00Z", Album("al2", "Second Album", "2022", lead), lead, feat),
	)
}
