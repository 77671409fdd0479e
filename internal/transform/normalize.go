package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// dateLayouts are tried in order. The provider reports album release dates at
// year, month or day precision and added_at as an RFC 3339 timestamp.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"2006-01",
	"2006",
}

// ParseDate parses a provider date string into a UTC instant.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", shared.ErrDateParse)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", shared.ErrDateParse, s)
}

// Dedup returns rows with exact duplicates removed, keeping the first occurrence of each.
func Dedup[T comparable](rows []T) []T {
	if rows == nil {
		return nil
	}

	seen := make(map[T]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Normalize deduplicates each table and coerces its date columns.
//
// The first unparseable date fails the whole document; no rows are returned.
func Normalize(t models.Tables) (models.Tables, error) {
	albums := Dedup(t.Albums)
	for i := range albums {
		d, err := coerce(albums[i].ReleaseDate)
		if err != nil {
			return models.Tables{}, fmt.Errorf("album %q release_date: %w", albums[i].AlbumID, err)
		}
		albums[i].ReleaseDate = d
	}

	songs := Dedup(t.Songs)
	for i := range songs {
		d, err := coerce(songs[i].SongAdded)
		if err != nil {
			return models.Tables{}, fmt.Errorf("song %q song_added: %w", songs[i].SongID, err)
		}
		songs[i].SongAdded = d
	}

	return models.Tables{
		Albums:  albums,
		Artists: Dedup(t.Artists),
		Songs:   songs,
	}, nil
}

func coerce(d models.Date) (models.Date, error) {
	v, err := ParseDate(d.Source)
	if err != nil {
		return models.Date{}, err
	}
	return models.Date{Source: d.Source, Value: v}, nil
}
