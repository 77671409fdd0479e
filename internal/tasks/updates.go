package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	WriteRaw
	ListDocuments
	ProcessDocument
	ArchiveDocument
	Finished
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case WriteRaw:
		return "write_raw"
	case ListDocuments:
		return "list_documents"
	case ProcessDocument:
		return "process_document"
	case ArchiveDocument:
		return "archive_document"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPlaylistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Fetching playlist %s from Spotify...", id),
	}
}

func writeRawUpdate(key string, items int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteRaw,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Writing %d items to %s", items, key),
	}
}

func listDocumentsUpdate(prefix string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListDocuments,
		Message: fmt.Sprintf("Listing pending documents under %s...", prefix),
	}
}

func foundDocumentsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListDocuments,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Found %d pending documents", total),
	}
}

func processingUpdate(step, total int, key string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessDocument,
		Step:    step - 1,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Transforming: %s...", step, total, key),
	}
}

func processedUpdate(step, total int, res DocumentResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s (%d albums, %d artists, %d songs)",
		step, total, res.Key, res.After.Albums, res.After.Artists, res.After.Songs)
	if res.Err != nil {
		// the stage error already names the key
		msg = fmt.Sprintf("[%d/%d] ✗ %v", step, total, res.Err)
	}
	return ProgressUpdate{
		Phase:   ProcessDocument,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func archivedUpdate(step, total int, res DocumentResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] Archived %s", step, total, res.Key)
	if res.ArchiveErr != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %v", step, total, res.ArchiveErr)
	}
	return ProgressUpdate{
		Phase:   ArchiveDocument,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func finishedUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: Finished,
		Step:  len(result.Documents),
		Total: len(result.Documents),
		Message: fmt.Sprintf("Run finished: %d succeeded, %d failed, %d archived",
			result.Succeeded(), result.Failed(), result.Archived()),
		Data: result,
	}
}
