package transform

import (
	"fmt"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// Verify reports the first song row whose album_id or artist_id has no matching row.
//
// Rows are built so this never fails; an error means decomposition is broken.
func Verify(t models.Tables) error {
	albums := make(map[string]struct{}, len(t.Albums))
	for _, a := range t.Albums {
		albums[a.AlbumID] = struct{}{}
	}
	artists := make(map[string]struct{}, len(t.Artists))
	for _, a := range t.Artists {
		artists[a.ArtistID] = struct{}{}
	}

	for _, s := range t.Songs {
		if _, ok := albums[s.AlbumID]; !ok {
			return fmt.Errorf("%w: song %q references unknown album %q", shared.ErrReferentialInconsistency, s.SongID, s.AlbumID)
		}
		if _, ok := artists[s.ArtistID]; !ok {
			return fmt.Errorf("%w: song %q references unknown artist %q", shared.ErrReferentialInconsistency, s.SongID, s.ArtistID)
		}
	}
	return nil
}
