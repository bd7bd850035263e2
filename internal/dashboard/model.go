package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/lookout/internal/engine"
)

// DefaultFrameInterval is the tick rate used when Options leaves it unset.
const DefaultFrameInterval = engine.DefaultTickInterval

// Driver is the engine surface the dashboard needs. *engine.Engine
// satisfies it.
type Driver interface {
	Tick(dt time.Duration)
	Snapshot() *engine.Snapshot
}

// Options configures NewModel.
type Options struct {
	// Interval is the frame rate. Each frame ticks the driver once.
	Interval time.Duration
	// Reload re-reads the configuration when r is pressed. Nil disables the key.
	Reload func() error
	// Now is the wall clock used to measure frame deltas.
	Now func() time.Time
}

// Model is the Bubble Tea model for the status dashboard.
type Model struct {
	driver   Driver
	reload   func() error
	interval time.Duration
	now      func() time.Time

	snap     *engine.Snapshot
	order    []string // target IDs in tree order
	lastTick time.Time

	selected  int
	width     int
	height    int
	viewMode  ViewMode
	showHelp  bool
	quitting  bool
	reloadErr string

	detailViewport viewport.Model
	viewportReady  bool
}

// tickMsg signals a frame.
type tickMsg time.Time

// reloadMsg carries the result of a reload.
type reloadMsg struct {
	err error
}

// NewModel creates a dashboard over d.
func NewModel(d Driver, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultFrameInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{
		driver:   d,
		reload:   opts.Reload,
		interval: opts.Interval,
		now:      opts.Now,
		lastTick: opts.Now(),
	}
	m.setSnapshot(d.Snapshot())
	return m
}

// Init starts the frame timer.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Reserve space for header and footer
		headerHeight := 3
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, viewportHeight)
			m.detailViewport.YPosition = headerHeight
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = viewportHeight
		}
		m.updateDetailViewportContent()

	case tickMsg:
		now := time.Time(msg)
		dt := now.Sub(m.lastTick)
		if dt < 0 {
			dt = 0
		}
		m.lastTick = now
		m.driver.Tick(dt)
		m.setSnapshot(m.driver.Snapshot())
		return m, m.tickCmd()

	case reloadMsg:
		m.reloadErr = ""
		if msg.err != nil {
			m.reloadErr = msg.err.Error()
		}
		m.setSnapshot(m.driver.Snapshot())
	}

	if m.viewMode == ViewDetail && m.viewportReady {
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewDetail {
		return m.renderDetailView()
	}
	return m.renderDashboard()
}

// tickCmd returns a command that sends a tick after the frame interval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// reloadCmd runs the reload function off the event loop.
func (m Model) reloadCmd() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	reload := m.reload
	return func() tea.Msg {
		return reloadMsg{err: reload()}
	}
}

// setSnapshot installs snap and keeps the selection on the same target when
// it still exists.
func (m *Model) setSnapshot(snap *engine.Snapshot) {
	selectedID := m.SelectedID()
	m.snap = snap
	var order []string
	if snap != nil && snap.Root != nil {
		walkTargets(snap.Root, func(id string) { order = append(order, id) })
	}
	m.order = order

	m.selected = 0
	for i, id := range m.order {
		if id == selectedID {
			m.selected = i
			break
		}
	}
	if len(m.order) == 0 && m.viewMode == ViewDetail {
		m.viewMode = ViewList
	}
	m.updateDetailViewportContent()
}

// walkTargets visits target IDs in display order: a group's own targets
// before its child groups.
func walkTargets(g *engine.GroupView, fn func(id string)) {
	for _, id := range g.Targets {
		fn(id)
	}
	for _, child := range g.Groups {
		walkTargets(child, fn)
	}
}

// SelectedID returns the ID of the selected target, empty when none.
func (m Model) SelectedID() string {
	if m.selected >= 0 && m.selected < len(m.order) {
		return m.order[m.selected]
	}
	return ""
}

// Snapshot returns the snapshot being rendered.
func (m Model) Snapshot() *engine.Snapshot {
	return m.snap
}
