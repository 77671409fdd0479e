package models

import "time"

// Run is a persisted transformer run.
type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Listed     int           `json:"listed"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Archived   int           `json:"archived"`
	DryRun     bool          `json:"dry_run"`
	Documents  []RunDocument `json:"documents,omitempty"`
}

// RunDocument is the persisted outcome of one document within a run.
type RunDocument struct {
	SourceKey    string      `json:"source_key"`
	Stage        string      `json:"stage,omitempty"` // failing stage, empty on success
	Error        string      `json:"error,omitempty"`
	Before       TableCounts `json:"before"` // rows decomposed, before dedup
	Counts       TableCounts `json:"counts"` // rows written, after dedup
	OutputKeys   []string    `json:"output_keys,omitempty"`
	Archived     bool        `json:"archived"`
	ArchiveError string      `json:"archive_error,omitempty"`
}

// Duration reports how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
