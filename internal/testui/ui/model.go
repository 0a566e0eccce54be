package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/domain"
	"github.com/DylanSharp/gotui/internal/testui/ports"
	"github.com/DylanSharp/gotui/internal/testui/service"
)

// Options configures a Model
type Options struct {
	// Path is the package pattern handed to every worker
	Path string
	// Launcher spawns the workers
	Launcher Launcher
	// Batches are the reads of the channel, see channel.Pump
	Batches <-chan []byte
	// Release returns consumed bytes to the writer
	Release service.ReleaseFunc
	// MaxFrameSize bounds a carried partial frame
	MaxFrameSize int
}

// Model is the Bubbletea model for the test runner TUI. It is also the
// store's listener, so every store callback runs inside Update.
type Model struct {
	// Test state
	store      *service.Store
	dispatcher *service.Dispatcher
	path       string

	// UI state
	keys      KeyMap
	help      help.Model
	filter    textinput.Model
	filtering bool
	filterErr error
	popup     *Popup
	statusBar StatusBar
	cursor    int
	offset    int
	width     int
	height    int

	// firstFailedFocused stops the cursor from following the running test
	firstFailedFocused bool
	pipeClosed         bool

	// Workers
	launcher Launcher
	batches  <-chan []byte

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc

	log zerolog.Logger
}

var _ ports.StoreListener = (*Model)(nil)

// NewModel creates a new Model
func NewModel(opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	filter := textinput.New()
	filter.Prompt = ""
	filter.Placeholder = "type to filter, # toggles literal"

	m := &Model{
		path:      opts.Path,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		filter:    filter,
		statusBar: NewStatusBar(),
		launcher:  opts.Launcher,
		batches:   opts.Batches,
		ctx:       ctx,
		cancel:    cancel,
		log:       logging.Get("ui"),
	}
	m.store = service.NewStore(m)
	m.dispatcher = service.NewDispatcher(m.store, opts.Release, opts.MaxFrameSize)
	return m
}

// Store returns the model's test store
func (m *Model) Store() *service.Store {
	return m.store
}

// Init initializes the model and starts the collection worker
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.readBatchCmd(),
		m.startWorker(WorkerRequest{Kind: WorkerCollect, Path: m.path}),
		tickCmd(),
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.filter.Width = max(msg.Width-12, 10)
		if m.popup != nil {
			m.popup.SetSize(msg.Width, msg.Height)
		}
		m.scrollToCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case BatchMsg:
		if m.dispatcher.Feed(msg.Data) {
			m.log.Debug().Msg("worker finished")
			m.statusBar.Finish()
		}
		m.clampCursor()
		return m, m.readBatchCmd()

	case PipeClosedMsg:
		m.pipeClosed = true
		m.log.Warn().Msg("channel reader stopped")
		return m, nil

	case WorkerExitedMsg:
		m.statusBar.Finish()
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Str("kind", string(msg.Kind)).Msg("worker exited with error")
		}
		return m, nil

	case ErrorMsg:
		m.statusBar.SetError(msg.Err)
		return m, nil

	case TickMsg:
		return m, tickCmd()
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	return RenderView(m)
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, m.quit()
	}
	if m.popup != nil {
		return m.handlePopupKey(msg)
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.ClearFilter):
		m.filter.SetValue("")
		m.applyFilter()
		m.filtering = true
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.RunAll):
		return m, m.runTests(false)

	case key.Matches(msg, m.keys.RunFailed):
		return m, m.runTests(true)

	case key.Matches(msg, m.keys.NextFailed):
		m.focusFailedSibling(1)

	case key.Matches(msg, m.keys.PrevFailed):
		m.focusFailedSibling(-1)

	case key.Matches(msg, m.keys.FailedOnly):
		m.store.SetShowFailedOnly(!m.store.ShowFailedOnly())

	case key.Matches(msg, m.keys.Details):
		m.showDetails()

	case key.Matches(msg, m.keys.Up):
		m.setCursor(m.cursor - 1)

	case key.Matches(msg, m.keys.Down):
		m.setCursor(m.cursor + 1)

	case key.Matches(msg, m.keys.PageUp):
		m.setCursor(m.cursor - m.listHeight())

	case key.Matches(msg, m.keys.PageDown):
		m.setCursor(m.cursor + m.listHeight())

	case key.Matches(msg, m.keys.Home):
		m.setCursor(0)

	case key.Matches(msg, m.keys.End):
		m.setCursor(len(m.store.CurrentTestList()) - 1)
	}

	return m, nil
}

func (m *Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Close) {
		m.popup = nil
		return m, nil
	}
	return m, m.popup.Update(msg)
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc, tea.KeyTab, tea.KeyDown:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter hands the filter box's text to the store. An invalid literal
// segment keeps the previous filter.
func (m *Model) applyFilter() {
	value := m.filter.Value()
	if value == m.store.FilterValue() {
		m.filterErr = nil
		return
	}
	if err := m.store.SetFilter(value); err != nil {
		m.filterErr = err
		return
	}
	m.filterErr = nil
	m.clampCursor()
}

// quit stops the worker, wakes a writer blocked on the channel and exits
func (m *Model) quit() tea.Cmd {
	if err := m.launcher.Kill(); err != nil {
		m.log.Warn().Err(err).Msg("could not stop worker")
	}
	m.cancel()
	return tea.Quit
}

// runTests clears the results of the tests about to run and starts a run
// worker. Tests flagged last_failed_exempt keep their result.
func (m *Model) runTests(failedOnly bool) tea.Cmd {
	if m.launcher.IsAlive() {
		m.statusBar.SetError(domain.ErrWorkerRunning())
		return nil
	}

	filter := m.store.FilterValue()
	tests := m.store.Tests(service.TestQuery{
		FailedOnly:      failedOnly,
		Filtered:        filter != "",
		ExcludeLFExempt: true,
	})
	m.log.Info().Bool("failed_only", failedOnly).Str("filter", filter).Int("tests", len(tests)).Msg("running tests")

	m.store.InvalidateTestResults(tests)
	m.store.SetShowCollected(true)
	m.firstFailedFocused = false
	m.dispatcher.Reset()

	return m.startWorker(WorkerRequest{
		Kind:       WorkerRun,
		Path:       m.path,
		FailedOnly: failedOnly,
		Filter:     filter,
	})
}

func (m *Model) startWorker(req WorkerRequest) tea.Cmd {
	exit, err := m.launcher.Start(req)
	if err != nil {
		m.log.Error().Err(err).Str("kind", string(req.Kind)).Msg("could not start worker")
		m.statusBar.SetError(err)
		return nil
	}
	m.statusBar.Start(req.Kind)
	return waitWorkerCmd(req.Kind, exit)
}

func (m *Model) focusFailedSibling(direction int) {
	id := m.store.GetFailedSibling(m.cursor, direction)
	if id == "" {
		return
	}
	m.setCursor(m.store.Position(id))
}

func (m *Model) showDetails() {
	rec := m.selected()
	if rec == nil {
		return
	}
	m.popup = NewPopup(rec.ID, rec.Output, false, m.width, m.height)
}

// selected returns the record under the cursor, or nil for an empty list
func (m *Model) selected() *domain.TestRecord {
	list := m.store.CurrentTestList()
	if m.cursor < 0 || m.cursor >= len(list) {
		return nil
	}
	return list[m.cursor]
}

// Cursor returns the focused row
func (m *Model) Cursor() int {
	return m.cursor
}

func (m *Model) setCursor(pos int) {
	n := len(m.store.CurrentTestList())
	if pos >= n {
		pos = n - 1
	}
	if pos < 0 {
		pos = 0
	}
	m.cursor = pos
	m.scrollToCursor()
}

func (m *Model) clampCursor() {
	m.setCursor(m.cursor)
}

// scrollToCursor moves the list window so the cursor row is visible
func (m *Model) scrollToCursor() {
	height := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+height {
		m.offset = m.cursor - height + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Store listener

// InitTestList implements ports.StoreListener
func (m *Model) InitTestList() {
	m.clampCursor()
}

// UpdateTestResult implements ports.StoreListener. The first failure of a
// run takes the focus and keeps it.
func (m *Model) UpdateTestResult(rec *domain.TestRecord) {
	if m.firstFailedFocused {
		return
	}
	if rec.ResultState != domain.ResultFailed && rec.ResultState != domain.ResultError {
		return
	}
	if pos := m.store.Position(rec.ID); pos >= 0 {
		m.setCursor(pos)
		m.firstFailedFocused = true
	}
}

// UpdateTestLine implements ports.StoreListener. Rows are rendered from the
// store on every View, so there is nothing to patch.
func (m *Model) UpdateTestLine(*domain.TestRecord) {}

// FocusTest implements ports.StoreListener. The cursor follows the running
// test until a failure has been focused.
func (m *Model) FocusTest(rec *domain.TestRecord) {
	if m.firstFailedFocused {
		return
	}
	if pos := m.store.Position(rec.ID); pos >= 0 {
		m.setCursor(pos)
	}
}

// ShowStartupError implements ports.StoreListener
func (m *Model) ShowStartupError(title, body string) {
	m.popup = NewPopup(title, body, true, m.width, m.height)
}

// Commands

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) readBatchCmd() tea.Cmd {
	return func() tea.Msg {
		if m.batches == nil {
			return PipeClosedMsg{}
		}

		select {
		case data, ok := <-m.batches:
			if !ok {
				return PipeClosedMsg{}
			}
			return BatchMsg{Data: data}
		case <-m.ctx.Done():
			return PipeClosedMsg{}
		}
	}
}

func waitWorkerCmd(kind WorkerKind, exit <-chan error) tea.Cmd {
	return func() tea.Msg {
		return WorkerExitedMsg{Kind: kind, Err: <-exit}
	}
}
