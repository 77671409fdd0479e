// Package ui implements an interactive terminal interface for transformer runs using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [ConfirmView] : Review the pending documents before running
//  2. [RunView] : Monitor real-time progress with a spinner and progress bar
//  3. [ResultView] : Browse per-document outcomes
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the transformer, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
