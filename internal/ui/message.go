package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotify-etl/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPendingFetched MsgKind = iota
	MsgProgressUpdate
	MsgRunComplete
)

type pendingFetched struct {
	keys []string
	err  error
}

type runComplete struct {
	result *tasks.RunResult
	err    error
}

// pendingFetchedMsg is the constructor for [MsgPendingFetched]
func pendingFetchedMsg(keys []string, err error) Msg {
	return Msg{kind: MsgPendingFetched, data: pendingFetched{keys, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(result *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runComplete{result, err}}
}
