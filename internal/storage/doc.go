// Package storage implements the object-storage collaborator used by the pipeline.
//
// [Store] is the full contract: list, read, write, copy, delete. The narrow
// interfaces ([Lister], [Reader], [Writer], [Copier], [Deleter]) let callers
// depend only on what they use.
//
// Implementations:
//   - [S3Store] : Amazon S3 (or an S3-compatible endpoint) through aws-sdk-go-v2
//   - [LocalStore] : a directory on disk, keys map to slash-separated paths
//
// Every backend failure is returned as an [*Error] that unwraps to [shared.ErrStorage].
// Missing objects additionally match [ErrNotFound]. No implementation retries on its
// own; the AWS SDK's retryer is configured at client construction.
package storage
