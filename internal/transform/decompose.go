package transform

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// artistSeparator joins performer names in the album table.
const artistSeparator = ", "

// Decompose derives the album, artist and song rows of doc.
//
// The whole document is validated before any row is built, so a malformed
// document yields no rows at all.
func Decompose(doc *models.PlaylistDocument) (models.Tables, error) {
	if err := validate(doc); err != nil {
		return models.Tables{}, err
	}

	var tables models.Tables
	for _, item := range doc.Items {
		tables.Albums = append(tables.Albums, albumRow(item))
		for _, artist := range item.Track.Artists {
			tables.Artists = append(tables.Artists, artistRow(artist))
			tables.Songs = append(tables.Songs, songRow(item, artist))
		}
	}
	return tables, nil
}

func validate(doc *models.PlaylistDocument) error {
	if doc == nil || len(doc.Items) == 0 {
		return fmt.Errorf("%w: no items", shared.ErrMalformedDocument)
	}

	for i, item := range doc.Items {
		switch {
		case item.Track == nil:
			return fmt.Errorf("%w: item %d has no track", shared.ErrMalformedDocument, i)
		case item.Track.Album == nil:
			return fmt.Errorf("%w: item %d track %q has no album", shared.ErrMalformedDocument, i, item.Track.ID)
		case len(item.Track.Album.Artists) == 0:
			return fmt.Errorf("%w: item %d track %q album has no artists", shared.ErrMalformedDocument, i, item.Track.ID)
		case len(item.Track.Artists) == 0:
			return fmt.Errorf("%w: item %d track %q has no artists", shared.ErrMalformedDocument, i, item.Track.ID)
		}
	}
	return nil
}

// albumID attributes the album to the first artist listed on it.
func albumID(album *models.Album) string {
	return album.Artists[0].ID
}

func albumRow(item models.PlaylistItem) models.AlbumRow {
	track := item.Track
	names := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		names[i] = a.Name
	}

	return models.AlbumRow{
		AlbumID:     albumID(track.Album),
		AlbumName:   track.Album.Name,
		ArtistName:  strings.Join(names, artistSeparator),
		ReleaseDate: models.NewDate(track.Album.ReleaseDate),
		TotalTracks: track.Album.TotalTracks,
		ExternalURL: track.ExternalURLs.Spotify,
	}
}

func artistRow(artist models.Artist) models.ArtistRow {
	return models.ArtistRow{
		ArtistID:   artist.ID,
		ArtistName: artist.Name,
		ArtistURL:  artist.Href,
	}
}

func songRow(item models.PlaylistItem, artist models.Artist) models.SongRow {
	track := item.Track
	return models.SongRow{
		SongID:         track.ID,
		SongName:       track.Name,
		SongPopularity: track.Popularity,
		SongDuration:   track.DurationMS,
		SongURL:        track.ExternalURLs.Spotify,
		SongAdded:      models.NewDate(item.AddedAt),
		AlbumID:        albumID(track.Album),
		ArtistID:       artist.ID,
	}
}
