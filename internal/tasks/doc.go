// Package tasks runs the two stages of the playlist pipeline with real-time progress reporting.
//
// # Extract
//
// [Extractor.Extract] resolves the playlist ID from the configured URL, pages through the
// playlist's tracks with a [services.Service] and writes the merged document as
// <raw_prefix>/spotify_raw_<timestamp>.json.
//
// # Transform
//
// [Transformer.Run] lists the pending raw prefix and, for each key with the raw extension:
//
//  1. Reads and decodes the document
//  2. Decomposes it into album, artist and song rows
//  3. Deduplicates rows and coerces release_date and song_added
//  4. Checks that every song row references a known album and artist
//  5. Serializes each table to CSV and writes it under
//     <transformed_prefix>/<table>_data/<table>_transformed_<stamp>.csv
//
// One stamp is generated per document, so its three outputs share a suffix.
// A failing document is recorded and the run moves on to the next one.
//
// Once every listed document has been attempted, each document whose three writes succeeded
// is archived: copied to <processed_prefix>/<basename>, then deleted from the pending prefix.
// The delete is never attempted when the copy fails. Archival failures are recorded per
// document and do not stop the remaining archival.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Errors
//
// Document failures are [*StageError] values naming the key and stage; they unwrap to the
// sentinels in the shared package ([shared.ErrMalformedDocument], [shared.ErrDateParse],
// [shared.ErrReferentialInconsistency], [shared.ErrStorage]).
//
// # Run History
//
// The optional [RunRecorder] interface persists each [RunResult]; recording errors are logged and ignored.
package tasks
