// Package models defines the raw playlist document read from storage and the three relational tables derived from it.
//
// The package contains two categories of types:
//
// 1. Raw document types: the Spotify Web API playlist-tracks payload as written by the extractor
//   - [PlaylistDocument] : top-level page with an ordered sequence of items
//   - [PlaylistItem] : one entry wrapping a [Track] and its added_at timestamp
//   - [Track], [Album], [Artist] : nested provider objects
//
// 2. Rows: flat, comparable records ready for serialization
//   - [AlbumRow] : one per item, keyed by the album's first artist id
//   - [ArtistRow] : one per (item, artist) pair
//   - [SongRow] : one per (item, artist) pair, referencing album and artist rows
//
// Rows are plain values. Two rows are duplicates iff every field is equal, so they can be compared with ==.
// Date-bearing columns use [Date], which keeps the source text and the parsed UTC instant side by side.
package models
