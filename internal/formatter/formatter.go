// package formatter serializes the album, artist and song tables to CSV and back,
// and renders plain text summaries of a transformed document.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

const (
	// ReleaseDateLayout is the canonical text form of album release dates.
	ReleaseDateLayout = time.DateOnly
	// AddedAtLayout is the canonical text form of song_added timestamps.
	AddedAtLayout = time.RFC3339
)

var (
	AlbumHeader  = []string{"album_id", "album_name", "artist_name", "release_date", "total_tracks", "external_url"}
	ArtistHeader = []string{"artist_id", "artist_name", "artist_url"}
	SongHeader   = []string{"song_id", "song_name", "song_popularity", "song_duration", "song_url", "song_added", "album_id", "artist_id"}
)

// Header returns the column names for table.
func Header(table models.Table) ([]string, error) {
	switch table {
	case models.AlbumTable:
		return AlbumHeader, nil
	case models.ArtistTable:
		return ArtistHeader, nil
	case models.SongTable:
		return SongHeader, nil
	default:
		return nil, fmt.Errorf("%w: unknown table %q", shared.ErrInvalidArgument, table)
	}
}

// Export serializes one table of t.
func Export(table models.Table, t models.Tables) ([]byte, error) {
	switch table {
	case models.AlbumTable:
		return ExportAlbums(t.Albums)
	case models.ArtistTable:
		return ExportArtists(t.Artists)
	case models.SongTable:
		return ExportSongs(t.Songs)
	default:
		return nil, fmt.Errorf("%w: unknown table %q", shared.ErrInvalidArgument, table)
	}
}

// ExportAlbums converts album rows to CSV with a header row.
func ExportAlbums(rows []models.AlbumRow) ([]byte, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.AlbumID,
			r.AlbumName,
			r.ArtistName,
			formatDate(r.ReleaseDate, ReleaseDateLayout),
			strconv.Itoa(r.TotalTracks),
			r.ExternalURL,
		}
	}
	return writeCSV(AlbumHeader, records)
}

// ExportArtists converts artist rows to CSV with a header row.
func ExportArtists(rows []models.ArtistRow) ([]byte, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.ArtistID, r.ArtistName, r.ArtistURL}
	}
	return writeCSV(ArtistHeader, records)
}

// ExportSongs converts song rows to CSV with a header row.
func ExportSongs(rows []models.SongRow) ([]byte, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.SongID,
			r.SongName,
			strconv.Itoa(r.SongPopularity),
			strconv.Itoa(r.SongDuration),
			r.SongURL,
			formatDate(r.SongAdded, AddedAtLayout),
			r.AlbumID,
			r.ArtistID,
		}
	}
	return writeCSV(SongHeader, records)
}

// formatDate renders coerced dates canonically and falls back to the source text.
func formatDate(d models.Date, layout string) string {
	if !d.Parsed() {
		return d.Source
	}
	return d.Value.UTC().Format(layout)
}

func writeCSV(header []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write CSV records: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseAlbums reads album rows written by [ExportAlbums].
func ParseAlbums(data []byte) ([]models.AlbumRow, error) {
	records, err := readCSV(data, AlbumHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]models.AlbumRow, 0, len(records))
	for i, rec := range records {
		released, err := parseDate(rec[3], ReleaseDateLayout)
		if err != nil {
			return nil, fmt.Errorf("album row %d: %w", i+1, err)
		}
		total, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, fmt.Errorf("album row %d total_tracks: %w", i+1, err)
		}
		rows = append(rows, models.AlbumRow{
			AlbumID:     rec[0],
			AlbumName:   rec[1],
			ArtistName:  rec[2],
			ReleaseDate: released,
			TotalTracks: total,
			ExternalURL: rec[5],
		})
	}
	return rows, nil
}

// ParseArtists reads artist rows written by [ExportArtists].
func ParseArtists(data []byte) ([]models.ArtistRow, error) {
	records, err := readCSV(data, ArtistHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ArtistRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.ArtistRow{ArtistID: rec[0], ArtistName: rec[1], ArtistURL: rec[2]})
	}
	return rows, nil
}

// ParseSongs reads song rows written by [ExportSongs].
func ParseSongs(data []byte) ([]models.SongRow, error) {
	records, err := readCSV(data, SongHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]models.SongRow, 0, len(records))
	for i, rec := range records {
		popularity, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("song row %d song_popularity: %w", i+1, err)
		}
		duration, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("song row %d song_duration: %w", i+1, err)
		}
		added, err := parseDate(rec[5], AddedAtLayout)
		if err != nil {
			return nil, fmt.Errorf("song row %d: %w", i+1, err)
		}
		rows = append(rows, models.SongRow{
			SongID:         rec[0],
			SongName:       rec[1],
			SongPopularity: popularity,
			SongDuration:   duration,
			SongURL:        rec[4],
			SongAdded:      added,
			AlbumID:        rec[6],
			ArtistID:       rec[7],
		})
	}
	return rows, nil
}

func parseDate(s, layout string) (models.Date, error) {
	v, err := time.Parse(layout, s)
	if err != nil {
		return models.Date{}, fmt.Errorf("%w: %q", shared.ErrDateParse, s)
	}
	return models.Date{Source: s, Value: v.UTC()}, nil
}

func readCSV(data []byte, header []string) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = len(header)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("failed to read CSV: missing header")
	}
	if !slices.Equal(records[0], header) {
		return nil, fmt.Errorf("unexpected CSV header %v, want %v", records[0], header)
	}
	return records[1:], nil
}
