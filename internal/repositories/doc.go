// Package repositories implements SQLite persistence for transformer run history.
//
// [RunRepository] stores one row per run in runs and one row per listed document in
// run_documents. It satisfies tasks.RunRecorder so the transformer can record runs
// without depending on the database.
package repositories
