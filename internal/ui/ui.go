package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotify-etl/internal/tasks"
)

// maxLogLines is the number of recent progress messages shown while running.
const maxLogLines = 6

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	RunView
	ResultView
)

// Runner lists and transforms pending documents. Implemented by [tasks.Transformer].
type Runner interface {
	Pending(ctx context.Context) ([]string, error)
	Run(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	runner       Runner
	view         ViewState
	width        int
	height       int
	pending      []string
	loading      bool
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	outcome      *runComplete
	progress     tasks.ProgressUpdate
	log          []string
	docs         list.Model
	result       *tasks.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model around runner.
func NewModel(ctx context.Context, runner Runner) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:     ctx,
		runner:  runner,
		view:    ConfirmView,
		loading: true,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the outcome of the last completed run.
func (m *Model) Result() (*tasks.RunResult, error) {
	return m.result, m.err
}

// Init lists the pending documents.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPending(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-4, 10)
		if m.docs.Width() != 0 {
			m.docs.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RunView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPendingFetched:
		data := msg.data.(pendingFetched)
		m.loading = false
		m.pending = data.keys
		m.err = data.err
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		m.log = append(m.log, m.progress.Message)
		if len(m.log) > maxLogLines {
			m.log = m.log[len(m.log)-maxLogLines:]
		}
		return m, m.waitForProgress()

	case MsgRunComplete:
		data := msg.data.(runComplete)
		m.result = data.result
		m.err = data.err
		m.progressChan = nil
		m.outcome = nil
		m.view = ResultView
		m.docs = m.newDocumentList()
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no):
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes):
		if m.loading || m.err != nil || len(m.pending) == 0 {
			return m, nil
		}
		m.view = RunView
		m.log = nil
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.startRun(), m.spinner.Tick)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = ConfirmView
		m.loading = true
		m.pending = nil
		m.err = nil
		return m, m.fetchPending()
	}

	var cmd tea.Cmd
	m.docs, cmd = m.docs.Update(msg)
	return m, cmd
}

func (m *Model) fetchPending() tea.Cmd {
	return func() tea.Msg {
		keys, err := m.runner.Pending(m.ctx)
		return pendingFetchedMsg(keys, err)
	}
}

func (m *Model) startRun() tea.Cmd {
	ch := make(chan tasks.ProgressUpdate, 50)
	out := &runComplete{}
	m.progressChan = ch
	m.outcome = out

	go func() {
		out.result, out.err = m.runner.Run(m.ctx, ch)
		close(ch)
	}()

	return m.waitForProgress()
}

// waitForProgress reads the next update; the closed channel marks the end of the run.
func (m *Model) waitForProgress() tea.Cmd {
	ch, out := m.progressChan, m.outcome
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return runCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) newDocumentList() list.Model {
	var items []list.Item
	if m.result != nil {
		items = make([]list.Item, len(m.result.Documents))
		for i, doc := range m.result.Documents {
			items[i] = documentItem{doc: doc}
		}
	}

	l := list.New(items, list.NewDefaultDelegate(), max(m.width-4, 20), max(m.height-8, 10))
	l.Title = "Documents"
	l.SetShowHelp(false)
	return l
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Transform pending playlist documents")

	var body string
	switch {
	case m.loading:
		body = fmt.Sprintf("%s Listing pending documents...", m.spinner.View())
	case m.err != nil:
		body = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case len(m.pending) == 0:
		body = styles.warn.Render("No pending documents.")
	default:
		lines := make([]string, 0, len(m.pending)+1)
		lines = append(lines, fmt.Sprintf("%d pending documents:", len(m.pending)))
		for _, k := range m.pending {
			lines = append(lines, "  • "+k)
		}
		body = strings.Join(lines, "\n")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Transforming")

	var phase string
	switch m.progress.Phase {
	case tasks.ListDocuments:
		phase = "Listing pending documents..."
	case tasks.ProcessDocument:
		phase = fmt.Sprintf("Processing documents (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ArchiveDocument:
		phase = "Archiving raw documents..."
	default:
		phase = "Working..."
	}

	percent := 0.0
	if m.progress.Total > 0 {
		percent = float64(m.progress.Step) / float64(m.progress.Total)
	}

	return fmt.Sprintf("%s\n%s %s\n\n%s\n\n%s",
		title, m.spinner.View(), phase, m.bar.ViewAs(percent), styles.help.Render(strings.Join(m.log, "\n")))
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress r to retry, q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Run Complete")
	if m.result.Failed() > 0 || m.result.Err() != nil {
		title = styles.warn.Render("! Run Complete with failures")
	}
	info := fmt.Sprintf("\nRun: %s\n%s",
		m.result.ID, styles.totals(m.result.Succeeded(), m.result.Failed(), m.result.Archived()))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.restart, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, info, m.docs.View(), helpView)
}
