package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotify-etl/internal/formatter"
	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/storage"
	"github.com/desertthunder/spotify-etl/internal/transform"
)

// stampLayout formats raw key timestamps and the per-document identifier shared by its three output keys.
const stampLayout = "20060102T150405.000000000Z"

// TransformerOpts contains the storage layout the transformer reads from and writes to.
type TransformerOpts struct {
	RawPrefix         string // Pending raw documents
	ProcessedPrefix   string // Archived raw documents
	TransformedPrefix string // Table outputs
	RawExtension      string // Only pending keys with this extension are processed (default: json)
	OutputExtension   string // Extension of table outputs (default: csv)
	DryRun            bool   // Process without writing outputs or archiving
}

// Transformer turns pending raw playlist documents into album, artist and song tables.
//
// Documents are processed one at a time; each document's outputs are written as soon as it is
// processed. Archival of every successful document is deferred until all listed documents
// have been attempted.
type Transformer struct {
	store     storage.Store
	opts      TransformerOpts
	logger    *log.Logger
	recorder  RunRecorder
	now       func() time.Time
	lastStamp time.Time
}

// NewTransformer creates a Transformer over store.
func NewTransformer(store storage.Store, opts TransformerOpts, logger *log.Logger) *Transformer {
	if opts.RawExtension == "" {
		opts.RawExtension = "json"
	}
	if opts.OutputExtension == "" {
		opts.OutputExtension = "csv"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Transformer{store: store, opts: opts, logger: logger, now: time.Now}
}

// SetRecorder enables run history persistence. Recording failures are logged, never fatal.
func (t *Transformer) SetRecorder(r RunRecorder) {
	t.recorder = r
}

// OutputKey builds the key of one table output:
// <prefix>/<table>_data/<table>_transformed_<stamp>.<ext>
func OutputKey(prefix string, table models.Table, stamp, ext string) string {
	name := fmt.Sprintf("%s_transformed_%s.%s", table, stamp, strings.TrimPrefix(ext, "."))
	return storage.Join(prefix, string(table)+"_data", name)
}

// ProcessedKey builds the archive key of a pending raw document.
func ProcessedKey(prefix, key string) string {
	return storage.Join(prefix, storage.Base(key))
}

// stamp returns a UTC identifier that is unique within this transformer.
func (t *Transformer) stamp() string {
	now := t.now().UTC()
	if !now.After(t.lastStamp) {
		now = t.lastStamp.Add(time.Nanosecond)
	}
	t.lastStamp = now
	return now.Format(stampLayout)
}

// Pending lists the pending raw keys that carry the raw extension.
func (t *Transformer) Pending(ctx context.Context) ([]string, error) {
	keys, err := t.store.List(ctx, t.opts.RawPrefix)
	if err != nil {
		return nil, &StageError{Key: t.opts.RawPrefix, Stage: StageList, Err: err}
	}

	pending := make([]string, 0, len(keys))
	for _, k := range keys {
		if storage.HasExtension(k, t.opts.RawExtension) {
			pending = append(pending, k)
		} else {
			t.logger.Debug("skipping object without raw extension", "key", k)
		}
	}
	return pending, nil
}

// Run lists pending documents, transforms each, then archives the successful ones.
//
// The returned error is non-nil only when listing fails or ctx is canceled; per-document
// failures are reported in the result (see [RunResult.Err]).
func (t *Transformer) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	result := &RunResult{
		ID:        shared.GenerateID(),
		StartedAt: t.now().UTC(),
		DryRun:    t.opts.DryRun,
	}
	logger := shared.WithLogger(t.logger, "run_id", result.ID)

	sendProgress(progress, listDocumentsUpdate(t.opts.RawPrefix))
	pending, err := t.Pending(ctx)
	if err != nil {
		result.FinishedAt = t.now().UTC()
		logger.Error("failed to list pending documents", "prefix", t.opts.RawPrefix, "error", err)
		return result, err
	}
	result.Listed = pending
	sendProgress(progress, foundDocumentsUpdate(len(pending)))
	logger.Info("listed pending documents", "prefix", t.opts.RawPrefix, "count", len(pending))

	total := len(pending)
	for i, key := range pending {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = t.now().UTC()
			return result, err
		}

		sendProgress(progress, processingUpdate(i+1, total, key))
		res := t.processDocument(ctx, key)
		result.Documents = append(result.Documents, res)
		sendProgress(progress, processedUpdate(i+1, total, res))

		docLogger := shared.WithLogger(logger, "key", key)
		if res.Err != nil {
			stage, _ := StageOf(res.Err)
			docLogger.Error("document failed", "stage", stage, "error", res.Err)
			continue
		}
		docLogger.Info("document transformed",
			"albums", res.After.Albums, "artists", res.After.Artists, "songs", res.After.Songs,
			"dry_run", t.opts.DryRun)
	}

	if !t.opts.DryRun {
		for i := range result.Documents {
			doc := &result.Documents[i]
			if doc.Err != nil {
				continue
			}

			t.archive(ctx, doc)
			sendProgress(progress, archivedUpdate(i+1, total, *doc))
			if doc.ArchiveErr != nil {
				stage, _ := StageOf(doc.ArchiveErr)
				logger.Warn("archival failed", "key", doc.Key, "stage", stage, "error", doc.ArchiveErr)
			}
		}
	}

	result.FinishedAt = t.now().UTC()
	sendProgress(progress, finishedUpdate(result))
	logger.Info("run finished", "succeeded", result.Succeeded(), "failed", result.Failed(), "archived", result.Archived())

	if t.recorder != nil {
		if err := t.recorder.SaveRun(ctx, result); err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}
	return result, nil
}

// Inspect reads and processes one raw document without writing anything.
func (t *Transformer) Inspect(ctx context.Context, key string) (models.Tables, models.TableCounts, error) {
	doc, err := t.load(ctx, key)
	if err != nil {
		return models.Tables{}, models.TableCounts{}, err
	}
	return t.tables(key, doc)
}

func (t *Transformer) load(ctx context.Context, key string) (*models.PlaylistDocument, error) {
	data, err := t.store.Read(ctx, key)
	if err != nil {
		return nil, &StageError{Key: key, Stage: StageRead, Err: err}
	}

	var doc models.PlaylistDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &StageError{Key: key, Stage: StageDecode, Err: fmt.Errorf("%w: %v", shared.ErrMalformedDocument, err)}
	}
	return &doc, nil
}

func (t *Transformer) tables(key string, doc *models.PlaylistDocument) (models.Tables, models.TableCounts, error) {
	raw, err := transform.Decompose(doc)
	if err != nil {
		return models.Tables{}, models.TableCounts{}, &StageError{Key: key, Stage: StageDecompose, Err: err}
	}
	before := raw.Counts()

	tables, err := transform.Normalize(raw)
	if err != nil {
		return models.Tables{}, before, &StageError{Key: key, Stage: StageNormalize, Err: err}
	}
	if err := transform.Verify(tables); err != nil {
		return models.Tables{}, before, &StageError{Key: key, Stage: StageVerify, Err: err}
	}
	return tables, before, nil
}

// processDocument runs one document through read, transform, serialize and write.
//
// All three outputs are attempted even when one write fails; any failure fails the document.
func (t *Transformer) processDocument(ctx context.Context, key string) DocumentResult {
	res := DocumentResult{Key: key}

	doc, err := t.load(ctx, key)
	if err != nil {
		res.Err = err
		return res
	}

	tables, before, err := t.tables(key, doc)
	res.Before = before
	if err != nil {
		res.Err = err
		return res
	}
	res.After = tables.Counts()

	payloads := make(map[models.Table][]byte, len(models.AllTables))
	for _, table := range models.AllTables {
		data, err := formatter.Export(table, tables)
		if err != nil {
			res.Err = &StageError{Key: key, Stage: StageSerialize, Err: err}
			return res
		}
		payloads[table] = data
	}

	res.Stamp = t.stamp()
	var errs []error
	for _, table := range models.AllTables {
		out := OutputKey(t.opts.TransformedPrefix, table, res.Stamp, t.opts.OutputExtension)
		res.OutputKeys = append(res.OutputKeys, out)
		if t.opts.DryRun {
			continue
		}
		if err := t.store.Write(ctx, out, payloads[table]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		res.Err = &StageError{Key: key, Stage: StageWrite, Err: err}
	}
	return res
}

// archive copies the raw document to the processed prefix, then deletes the pending copy.
func (t *Transformer) archive(ctx context.Context, doc *DocumentResult) {
	dst := ProcessedKey(t.opts.ProcessedPrefix, doc.Key)
	if dst == doc.Key {
		doc.ArchiveErr = &StageError{Key: doc.Key, Stage: StageArchiveCopy,
			Err: fmt.Errorf("%w: %s is already under the processed prefix", shared.ErrInvalidConfig, doc.Key)}
		return
	}
	if err := t.store.Copy(ctx, doc.Key, dst); err != nil {
		doc.ArchiveErr = &StageError{Key: doc.Key, Stage: StageArchiveCopy, Err: err}
		return
	}
	if err := t.store.Delete(ctx, doc.Key); err != nil {
		doc.ArchiveErr = &StageError{Key: doc.Key, Stage: StageArchiveDelete, Err: err}
		return
	}
	doc.Archived = true
}
