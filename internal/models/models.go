// package models defines the data model for the playlist transformation pipeline
package models

import (
	"time"
)

// PlaylistDocument is the raw playlist-tracks payload as returned by the provider API.
type PlaylistDocument struct {
	Href  string         `json:"href,omitempty"`
	Items []PlaylistItem `json:"items"`
	Total int            `json:"total,omitempty"`
	Limit int            `json:"limit,omitempty"`
	Next  *string        `json:"next,omitempty"`
}

// PlaylistItem wraps one track and the time it was added to the playlist.
type PlaylistItem struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track"`
}

// ExternalURLs holds the provider's public URLs for an object.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// Track represents a track embedded in a playlist item.
type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Popularity   int          `json:"popularity"`
	DurationMS   int          `json:"duration_ms"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	Album        *Album       `json:"album"`
	Artists      []Artist     `json:"artists"`
}

// Album represents the album reference embedded in a track.
type Album struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ReleaseDate  string       `json:"release_date"`
	TotalTracks  int          `json:"total_tracks"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	Artists      []Artist     `json:"artists"`
}

// Artist represents an artist reference embedded in a track or album.
type Artist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Href         string       `json:"href"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Date is a date-bearing column value.
//
// Source is the text found in the raw document; Value is zero until the row has been normalized.
// Value is always stored in UTC so that rows stay comparable with ==.
type Date struct {
	Source string
	Value  time.Time
}

// NewDate returns an unparsed [Date] for the given source text.
func NewDate(source string) Date {
	return Date{Source: source}
}

// Parsed reports whether the date has been coerced.
func (d Date) Parsed() bool {
	return !d.Value.IsZero()
}

// AlbumRow is one row of the album table.
type AlbumRow struct {
	AlbumID     string
	AlbumName   string
	ArtistName  string // comma-joined names of the track's performers
	ReleaseDate Date
	TotalTracks int
	ExternalURL string
}

// ArtistRow is one row of the artist table.
type ArtistRow struct {
	ArtistID   string
	ArtistName string
	ArtistURL  string
}

// SongRow is one row of the song table.
type SongRow struct {
	SongID         string
	SongName       string
	SongPopularity int
	SongDuration   int
	SongURL        string
	SongAdded      Date
	AlbumID        string
	ArtistID       string
}

// Tables holds the three row-sets derived from a single raw document.
type Tables struct {
	Albums  []AlbumRow
	Artists []ArtistRow
	Songs   []SongRow
}

// Counts reports the number of rows in each table.
func (t Tables) Counts() TableCounts {
	return TableCounts{Albums: len(t.Albums), Artists: len(t.Artists), Songs: len(t.Songs)}
}

// TableCounts is a per-table row count.
type TableCounts struct {
	Albums  int `json:"albums"`
	Artists int `json:"artists"`
	Songs   int `json:"songs"`
}

// Table names the three output tables.
type Table string

const (
	AlbumTable  Table = "album"
	ArtistTable Table = "artist"
	SongTable   Table = "song"
)

// AllTables lists the output tables in write order.
var AllTables = []Table{SongTable, AlbumTable, ArtistTable}
