package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette(PaletteColors{
	Title: "#1DB954", // Spotify green
	OK:    "#04B575",
	Err:   "#FF4D4F",
	Warn:  "#FFA500",
	Muted: "#626262",
})

// PaletteColors are the foreground colors of a [Palette].
type PaletteColors struct {
	Title, OK, Err, Warn, Muted string
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(c PaletteColors) *Palette {
	return &Palette{
		title: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Title)).Bold(true).MarginBottom(1),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.OK)).Bold(true),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color(c.Err)).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Warn)),
		help:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Muted)).Italic(true),
	}
}

// totals renders run totals. Failure and unarchived counts are only highlighted when non-zero.
func (p *Palette) totals(succeeded, failed, archived int) string {
	failedStyle, archivedStyle := p.help, p.ok
	if failed > 0 {
		failedStyle = p.err
	}
	if archived < succeeded {
		archivedStyle = p.warn
	}
	return fmt.Sprintf("%s  %s  %s",
		p.ok.Render(fmt.Sprintf("Succeeded: %d", succeeded)),
		failedStyle.Render(fmt.Sprintf("Failed: %d", failed)),
		archivedStyle.Render(fmt.Sprintf("Archived: %d", archived)),
	)
}
