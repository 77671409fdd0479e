package tasks

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/spotify-etl/internal/formatter"
	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
	tu "github.com/desertthunder/spotify-etl/internal/testing"
)

const (
	rawPrefix         = "raw_data/to_processed"
	processedPrefix   = "raw_data/processed"
	transformedPrefix = "transformed_data"
)

var clock = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTransformer(t *testing.T, store *tu.MemoryStore, dryRun bool) *Transformer {
	t.Helper()
	tr := NewTransformer(store, TransformerOpts{
		RawPrefix:         rawPrefix,
		ProcessedPrefix:   processedPrefix,
		TransformedPrefix: transformedPrefix,
		DryRun:            dryRun,
	}, log.New(&strings.Builder{}))
	tr.now = func() time.Time { return clock }
	return tr
}

func malformedDocument() *models.PlaylistDocument {
	a := tu.Artist("a", "A")
	return tu.Document(
		tu.Item("t1", "One", "2023-01-01T00:00:00Z", tu.Album("al", "X", "2020", a), a),
		tu.Item("t2", "Two", "2023-01-01T00:00:00Z", tu.Album("al", "X", "2020", a)),
	)
}

func indexOf(calls []string, call string) int {
	return slices.Index(calls, call)
}

type recorder struct {
	runs []*RunResult
	err  error
}

func (r *recorder) SaveRun(ctx context.Context, result *RunResult) error {
	r.runs = append(r.runs, result)
	return r.err
}

func TestTransformer(t *testing.T) {
	t.Run("transforms and archives every pending document", func(t *testing.T) {
		store := tu.NewMemoryStore()
		first, second := tu.Key(rawPrefix, 1), tu.Key(rawPrefix, 2)
		store.Put(first, tu.MustJSON(t, tu.SampleDocument()))
		store.Put(second, tu.MustJSON(t, tu.SampleDocument()))

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, result.Err())

		assert.Equal(t, []string{first, second}, result.Listed)
		require.Len(t, result.Documents, 2)
		assert.Equal(t, 2, result.Succeeded())
		assert.Equal(t, 2, result.Archived())

		doc := result.Documents[0]
		assert.Equal(t, "20240102T030405.000000000Z", doc.Stamp)
		assert.Equal(t, []string{
			"transformed_data/song_data/song_transformed_20240102T030405.000000000Z.csv",
			"transformed_data/album_data/album_transformed_20240102T030405.000000000Z.csv",
			"transformed_data/artist_data/artist_transformed_20240102T030405.000000000Z.csv",
		}, doc.OutputKeys)
		assert.Equal(t, models.TableCounts{Albums: 2, Artists: 3, Songs: 3}, doc.After)
		assert.NotEqual(t, doc.Stamp, result.Documents[1].Stamp, "stamps must not collide across documents")

		for _, key := range doc.OutputKeys {
			_, ok := store.Get(key)
			assert.True(t, ok, "missing output %s", key)
		}

		payload, _ := store.Get(doc.OutputKeys[1])
		albums, err := formatter.ParseAlbums(payload)
		require.NoError(t, err)
		assert.Len(t, albums, 2)

		for _, key := range []string{first, second} {
			_, pending := store.Get(key)
			assert.False(t, pending, "%s should be removed from pending", key)
			_, archived := store.Get(processedPrefix + "/" + key[len(rawPrefix)+1:])
			assert.True(t, archived, "%s should be archived", key)
		}
	})

	t.Run("archival starts after every document is written", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.Put(tu.Key(rawPrefix, 1), tu.MustJSON(t, tu.SampleDocument()))
		store.Put(tu.Key(rawPrefix, 2), tu.MustJSON(t, tu.SampleDocument()))

		_, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)

		calls := store.Calls()
		lastWrite, firstCopy := -1, -1
		for i, c := range calls {
			if strings.HasPrefix(c, "write ") {
				lastWrite = i
			}
			if strings.HasPrefix(c, "copy ") && firstCopy == -1 {
				firstCopy = i
			}
		}
		assert.Less(t, lastWrite, firstCopy)

		for _, key := range []string{tu.Key(rawPrefix, 1), tu.Key(rawPrefix, 2)} {
			assert.Less(t, indexOf(calls, "copy "+key), indexOf(calls, "delete "+key), "copy must precede delete for %s", key)
		}
	})

	t.Run("skips keys without the raw extension", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.Put(tu.Key(rawPrefix, 1), tu.MustJSON(t, tu.SampleDocument()))
		store.Put(rawPrefix+"/notes.txt", []byte("not a document"))

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)

		assert.Equal(t, []string{tu.Key(rawPrefix, 1)}, result.Listed)
		_, ok := store.Get(rawPrefix + "/notes.txt")
		assert.True(t, ok)
	})

	t.Run("malformed document does not block the batch", func(t *testing.T) {
		store := tu.NewMemoryStore()
		bad, good := tu.Key(rawPrefix, 1), tu.Key(rawPrefix, 2)
		store.Put(bad, tu.MustJSON(t, malformedDocument()))
		store.Put(good, tu.MustJSON(t, tu.SampleDocument()))

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, result.Documents, 2)

		failed := result.Documents[0]
		assert.ErrorIs(t, failed.Err, shared.ErrMalformedDocument)
		stage, ok := StageOf(failed.Err)
		assert.True(t, ok)
		assert.Equal(t, StageDecompose, stage)
		assert.Empty(t, failed.OutputKeys)
		assert.False(t, failed.Archived)

		_, stillPending := store.Get(bad)
		assert.True(t, stillPending)
		for _, c := range store.Calls() {
			assert.NotEqual(t, "copy "+bad, c)
		}

		assert.True(t, result.Documents[1].Archived)
		assert.Equal(t, 1, result.Failed())
		assert.ErrorIs(t, result.Err(), shared.ErrMalformedDocument)
	})

	t.Run("failure stages", func(t *testing.T) {
		a := tu.Artist("a", "A")
		badDate := tu.Document(tu.Item("t1", "One", "yesterday", tu.Album("al", "X", "2020", a), a))

		tc := []struct {
			name    string
			payload []byte
			stage   Stage
			target  error
		}{
			{name: "invalid json", payload: []byte("{not json"), stage: StageDecode, target: shared.ErrMalformedDocument},
			{name: "no items", payload: []byte(`{"items":[]}`), stage: StageDecompose, target: shared.ErrMalformedDocument},
			{name: "bad date", payload: tu.MustJSON(t, badDate), stage: StageNormalize, target: shared.ErrDateParse},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				store := tu.NewMemoryStore()
				store.Put(tu.Key(rawPrefix, 1), tt.payload)

				result, err := newTransformer(t, store, false).Run(context.Background(), nil)
				require.NoError(t, err)
				require.Len(t, result.Documents, 1)

				doc := result.Documents[0]
				assert.ErrorIs(t, doc.Err, tt.target)
				stage, _ := StageOf(doc.Err)
				assert.Equal(t, tt.stage, stage)
				assert.Contains(t, doc.Err.Error(), tu.Key(rawPrefix, 1))
				assert.Empty(t, store.Keys()[1:], "nothing but the raw document should exist")
			})
		}
	})

	t.Run("read failure", func(t *testing.T) {
		store := tu.NewMemoryStore()
		key := tu.Key(rawPrefix, 1)
		store.Put(key, tu.MustJSON(t, tu.SampleDocument()))
		store.FailOn("read", key, nil)

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)

		assert.ErrorIs(t, result.Documents[0].Err, shared.ErrStorage)
		stage, _ := StageOf(result.Documents[0].Err)
		assert.Equal(t, StageRead, stage)
	})

	t.Run("write failure prevents archival", func(t *testing.T) {
		store := tu.NewMemoryStore()
		key := tu.Key(rawPrefix, 1)
		store.Put(key, tu.MustJSON(t, tu.SampleDocument()))
		failing := OutputKey(transformedPrefix, models.AlbumTable, "20240102T030405.000000000Z", "csv")
		store.FailOn("write", failing, errors.New("disk full"))

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)

		doc := result.Documents[0]
		assert.ErrorIs(t, doc.Err, shared.ErrStorage)
		stage, _ := StageOf(doc.Err)
		assert.Equal(t, StageWrite, stage)
		assert.False(t, doc.Archived)

		writes := 0
		for _, c := range store.Calls() {
			if strings.HasPrefix(c, "write ") {
				writes++
			}
			assert.False(t, strings.HasPrefix(c, "copy "), "no archival expected, got %s", c)
		}
		assert.Equal(t, 3, writes, "each table write is attempted exactly once")

		_, ok := store.Get(key)
		assert.True(t, ok)
	})

	t.Run("delete failure keeps the raw document", func(t *testing.T) {
		store := tu.NewMemoryStore()
		key := tu.Key(rawPrefix, 1)
		store.Put(key, tu.MustJSON(t, tu.SampleDocument()))
		store.FailOn("delete", key, nil)

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)

		doc := result.Documents[0]
		assert.NoError(t, doc.Err)
		assert.False(t, doc.Archived)
		stage, _ := StageOf(doc.ArchiveErr)
		assert.Equal(t, StageArchiveDelete, stage)
		assert.ErrorIs(t, result.Err(), shared.ErrStorage)

		_, pending := store.Get(key)
		assert.True(t, pending, "raw document must survive a failed delete")
		_, archived := store.Get(ProcessedKey(processedPrefix, key))
		assert.True(t, archived)
	})

	t.Run("copy failure skips delete and continues", func(t *testing.T) {
		store := tu.NewMemoryStore()
		first, second := tu.Key(rawPrefix, 1), tu.Key(rawPrefix, 2)
		store.Put(first, tu.MustJSON(t, tu.SampleDocument()))
		store.Put(second, tu.MustJSON(t, tu.SampleDocument()))
		store.FailOn("copy", first, nil)

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)

		stage, _ := StageOf(result.Documents[0].ArchiveErr)
		assert.Equal(t, StageArchiveCopy, stage)
		assert.Equal(t, -1, indexOf(store.Calls(), "delete "+first))
		assert.True(t, result.Documents[1].Archived)
	})

	t.Run("archiving onto an existing processed key overwrites it", func(t *testing.T) {
		store := tu.NewMemoryStore()
		key := tu.Key(rawPrefix, 1)
		store.Put(key, tu.MustJSON(t, tu.SampleDocument()))
		store.Put(ProcessedKey(processedPrefix, key), []byte("stale"))

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, result.Documents[0].Archived)

		archived, _ := store.Get(ProcessedKey(processedPrefix, key))
		assert.NotEqual(t, "stale", string(archived))
	})

	t.Run("never archives a document onto itself", func(t *testing.T) {
		store := tu.NewMemoryStore()
		archivedKey := "raw_data/processed/a.json"
		store.Put(archivedKey, tu.MustJSON(t, tu.SampleDocument()))

		tr := NewTransformer(store, TransformerOpts{
			RawPrefix:         "raw_data",
			ProcessedPrefix:   "raw_data/processed",
			TransformedPrefix: transformedPrefix,
		}, log.New(&strings.Builder{}))
		tr.now = func() time.Time { return clock }

		result, err := tr.Run(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, result.Documents, 1)

		doc := result.Documents[0]
		assert.False(t, doc.Archived)
		assert.ErrorIs(t, doc.ArchiveErr, shared.ErrInvalidConfig)
		stage, _ := StageOf(doc.ArchiveErr)
		assert.Equal(t, StageArchiveCopy, stage)

		assert.Equal(t, -1, indexOf(store.Calls(), "copy "+archivedKey))
		assert.Equal(t, -1, indexOf(store.Calls(), "delete "+archivedKey))
		_, kept := store.Get(archivedKey)
		assert.True(t, kept, "archived raw document must survive")
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		store := tu.NewMemoryStore()
		key := tu.Key(rawPrefix, 1)
		store.Put(key, tu.MustJSON(t, tu.SampleDocument()))

		result, err := newTransformer(t, store, true).Run(context.Background(), nil)
		require.NoError(t, err)

		assert.True(t, result.DryRun)
		assert.Len(t, result.Documents[0].OutputKeys, 3)
		assert.Equal(t, 0, result.Archived())
		assert.Equal(t, []string{key}, store.Keys())
		for _, c := range store.Calls() {
			assert.True(t, strings.HasPrefix(c, "list ") || strings.HasPrefix(c, "read "), "unexpected call %s", c)
		}
	})

	t.Run("list failure fails the run", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.FailOn("list", rawPrefix, nil)

		result, err := newTransformer(t, store, false).Run(context.Background(), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrStorage)
		stage, _ := StageOf(err)
		assert.Equal(t, StageList, stage)
		assert.Empty(t, result.Documents)
	})

	t.Run("empty prefix", func(t *testing.T) {
		result, err := newTransformer(t, tu.NewMemoryStore(), false).Run(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, result.Documents)
		assert.NoError(t, result.Err())
	})

	t.Run("canceled context stops before archival", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.Put(tu.Key(rawPrefix, 1), tu.MustJSON(t, tu.SampleDocument()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTransformer(t, store, false).Run(ctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, -1, indexOf(store.Calls(), "copy "+tu.Key(rawPrefix, 1)))
	})

	t.Run("records the run", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.Put(tu.Key(rawPrefix, 1), tu.MustJSON(t, tu.SampleDocument()))

		rec := &recorder{err: errors.New("database is locked")}
		tr := newTransformer(t, store, false)
		tr.SetRecorder(rec)

		result, err := tr.Run(context.Background(), nil)
		require.NoError(t, err, "recording failures are not fatal")
		require.Len(t, rec.runs, 1)
		assert.Equal(t, result.ID, rec.runs[0].ID)
	})

	t.Run("reports progress", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.Put(tu.Key(rawPrefix, 1), tu.MustJSON(t, tu.SampleDocument()))

		progress := make(chan ProgressUpdate, 16)
		_, err := newTransformer(t, store, false).Run(context.Background(), progress)
		require.NoError(t, err)
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		assert.Equal(t, []Phase{ListDocuments, ListDocuments, ProcessDocument, ProcessDocument, ArchiveDocument, Finished}, phases)
	})
}

func TestInspect(t *testing.T) {
	store := tu.NewMemoryStore()
	key := tu.Key(rawPrefix, 1)
	doc := tu.SampleDocument()
	doc.Items = append(doc.Items, doc.Items[0])
	store.Put(key, tu.MustJSON(t, doc))

	tables, before, err := newTransformer(t, store, false).Inspect(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, models.TableCounts{Albums: 3, Artists: 4, Songs: 4}, before)
	assert.Equal(t, models.TableCounts{Albums: 2, Artists: 3, Songs: 3}, tables.Counts())
	assert.Equal(t, []string{"read " + key}, store.Calls())

	_, _, err = newTransformer(t, store, false).Inspect(context.Background(), "missing.json")
	stage, _ := StageOf(err)
	assert.Equal(t, StageRead, stage)
}

func TestKeys(t *testing.T) {
	assert.Equal(t,
		"transformed_data/album_data/album_transformed_s.csv",
		OutputKey("/transformed_data/", models.AlbumTable, "s", ".csv"))
	assert.Equal(t,
		"raw_data/processed/spotify_raw_001.json",
		ProcessedKey("raw_data/processed", "raw_data/to_processed/spotify_raw_001.json"))

	tr := newTransformer(t, tu.NewMemoryStore(), false)
	first, second := tr.stamp(), tr.stamp()
	assert.Equal(t, "20240102T030405.000000000Z", first)
	assert.Equal(t, "20240102T030405.000000001Z", second)
}
