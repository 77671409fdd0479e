package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotify-etl/internal/tasks"
)

var (
	_ list.Item = documentItem{}
)

// documentItem wraps [tasks.DocumentResult] to implement [list.Item].
type documentItem struct {
	doc tasks.DocumentResult
}

func (i documentItem) FilterValue() string { return i.doc.Key }

func (i documentItem) Title() string {
	switch {
	case i.doc.Err != nil:
		return "✗ " + i.doc.Key
	case i.doc.ArchiveErr != nil:
		return "! " + i.doc.Key
	default:
		return "✓ " + i.doc.Key
	}
}

func (i documentItem) Description() string {
	if i.doc.Err != nil {
		return i.doc.Err.Error()
	}
	desc := fmt.Sprintf("%d albums • %d artists • %d songs", i.doc.After.Albums, i.doc.After.Artists, i.doc.After.Songs)
	if i.doc.ArchiveErr != nil {
		desc = fmt.Sprintf("%s • archive failed: %v", desc, i.doc.ArchiveErr)
	}
	return desc
}
