package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/tasks"
)

type fakeRunner struct {
	pending    []string
	pendingErr error
	result     *tasks.RunResult
	runErr     error
}

func (f *fakeRunner) Pending(ctx context.Context) ([]string, error) {
	return f.pending, f.pendingErr
}

func (f *fakeRunner) Run(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
	progress <- tasks.ProgressUpdate{Phase: tasks.ProcessDocument, Step: 0, Total: 1, Message: "[1/1] Transforming: a.json..."}
	progress <- tasks.ProgressUpdate{Phase: tasks.ProcessDocument, Step: 1, Total: 1, Message: "[1/1] ✓ a.json"}
	return f.result, f.runErr
}

func keyPress(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func loaded(t *testing.T, runner *fakeRunner) *Model {
	t.Helper()
	m := NewModel(context.Background(), runner)
	m.Update(m.fetchPending()())
	return m
}

func TestModel(t *testing.T) {
	result := &tasks.RunResult{
		ID: "run-1",
		Documents: []tasks.DocumentResult{
			{Key: "a.json", After: models.TableCounts{Albums: 2, Artists: 3, Songs: 3}, Archived: true},
			{Key: "b.json", Err: errors.New("malformed document")},
		},
	}

	t.Run("lists pending documents", func(t *testing.T) {
		m := loaded(t, &fakeRunner{pending: []string{"a.json", "b.json"}})

		if m.loading {
			t.Error("expected loading to finish")
		}
		view := m.View()
		if !strings.Contains(view, "2 pending documents") || !strings.Contains(view, "• b.json") {
			t.Errorf("unexpected confirm view:\n%s", view)
		}
	})

	t.Run("nothing to run", func(t *testing.T) {
		m := loaded(t, &fakeRunner{})

		m.Update(keyPress("y"))
		if m.view != ConfirmView {
			t.Error("should not start a run without pending documents")
		}
		if !strings.Contains(m.View(), "No pending documents") {
			t.Errorf("unexpected view:\n%s", m.View())
		}
	})

	t.Run("listing error", func(t *testing.T) {
		m := loaded(t, &fakeRunner{pendingErr: errors.New("access denied")})
		if !strings.Contains(m.View(), "access denied") {
			t.Errorf("expected error in view, got:\n%s", m.View())
		}
	})

	t.Run("cancel quits", func(t *testing.T) {
		m := loaded(t, &fakeRunner{pending: []string{"a.json"}})

		_, cmd := m.Update(keyPress("n"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("runs to completion", func(t *testing.T) {
		m := loaded(t, &fakeRunner{pending: []string{"a.json", "b.json"}, result: result})

		m.Update(keyPress("y"))
		if m.view != RunView {
			t.Fatalf("expected run view, got %v", m.view)
		}

		for i := 0; m.view == RunView && i < 10; i++ {
			m.Update(m.waitForProgress()())
		}

		if m.view != ResultView {
			t.Fatalf("expected result view, got %v", m.view)
		}
		if len(m.log) != 2 {
			t.Errorf("expected 2 progress messages, got %d", len(m.log))
		}

		got, err := m.Result()
		if err != nil || got != result {
			t.Errorf("unexpected result %v, %v", got, err)
		}

		view := m.View()
		for _, want := range []string{"Run: run-1", "Succeeded: 1", "Failed: 1", "Archived: 1"} {
			if !strings.Contains(view, want) {
				t.Errorf("result view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("run error", func(t *testing.T) {
		m := loaded(t, &fakeRunner{pending: []string{"a.json"}, runErr: errors.New("listing failed")})

		m.Update(keyPress("y"))
		for i := 0; m.view == RunView && i < 10; i++ {
			m.Update(m.waitForProgress()())
		}

		if !strings.Contains(m.View(), "Run failed: listing failed") {
			t.Errorf("unexpected view:\n%s", m.View())
		}
	})

	t.Run("restart lists again", func(t *testing.T) {
		runner := &fakeRunner{pending: []string{"a.json"}, result: result}
		m := loaded(t, runner)
		m.Update(keyPress("y"))
		for i := 0; m.view == RunView && i < 10; i++ {
			m.Update(m.waitForProgress()())
		}

		runner.pending = nil
		_, cmd := m.Update(keyPress("r"))
		if m.view != ConfirmView || !m.loading {
			t.Fatal("expected confirm view while listing")
		}
		m.Update(cmd())
		if len(m.pending) != 0 {
			t.Errorf("expected refreshed pending list, got %v", m.pending)
		}
	})
}

func TestDocumentItem(t *testing.T) {
	ok := documentItem{doc: tasks.DocumentResult{Key: "a.json", After: models.TableCounts{Albums: 1, Artists: 2, Songs: 2}}}
	if ok.Title() != "✓ a.json" || ok.Description() != "1 albums • 2 artists • 2 songs" {
		t.Errorf("unexpected item %q / %q", ok.Title(), ok.Description())
	}

	failed := documentItem{doc: tasks.DocumentResult{Key: "b.json", Err: errors.New("boom")}}
	if failed.Title() != "✗ b.json" || failed.Description() != "boom" {
		t.Errorf("unexpected item %q / %q", failed.Title(), failed.Description())
	}

	unarchived := documentItem{doc: tasks.DocumentResult{Key: "c.json", ArchiveErr: errors.New("denied")}}
	if unarchived.Title() != "! c.json" || !strings.Contains(unarchived.Description(), "archive failed: denied") {
		t.Errorf("unexpected item %q / %q", unarchived.Title(), unarchived.Description())
	}

	if ok.FilterValue() != "a.json" {
		t.Errorf("unexpected filter value %q", ok.FilterValue())
	}
}
