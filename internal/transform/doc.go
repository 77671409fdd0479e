// Package transform turns one raw playlist document into three deduplicated relational tables.
//
// The pipeline has three pure steps, each taking and returning values:
//
//  1. [Decompose] : splits a [models.PlaylistDocument] into album, artist and song rows.
//     Rows follow item order, then artist order within an item.
//  2. [Normalize] : drops exact duplicate rows (first occurrence wins) and coerces
//     release_date and song_added into UTC instants. Any unparseable date fails
//     the whole document.
//  3. [Verify] : checks that every song row references an album row and an artist
//     row of the same document.
//
// The tasks transformer runs all three in order, tagging each failure with its step.
// Errors wrap [shared.ErrMalformedDocument],
// [shared.ErrDateParse] or [shared.ErrReferentialInconsistency].
package transform
