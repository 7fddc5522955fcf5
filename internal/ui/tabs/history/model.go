// Package history provides the history tab: locally recorded stats snapshots
// and the session audit log.
package history

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

const (
	snapshotLimit = 200
	eventLimit    = 15
)

// Source reads the local history database.
type Source interface {
	SnapshotHistory(period models.Period, limit int) ([]models.StatsSnapshot, error)
	SessionEvents(limit int) ([]models.SessionEvent, error)
}

type keyMap struct {
	ToggleRange, Up, Down key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle time range")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	}
}

// loadedMsg carries one load of the history database.
type loadedMsg struct {
	period    models.Period
	snapshots []models.StatsSnapshot
	events    []models.SessionEvent
}

type loadFailedMsg struct {
	err error
}

// Model is the history tab.
type Model struct {
	state    *app.State
	source   Source
	keys     keyMap
	viewport viewport.Model

	width, height int

	period      models.Period
	snapshots   []models.StatsSnapshot
	events      []models.SessionEvent
	loaded      bool
	loading     bool
	errorMsg    string
}

// New creates a new history model. The range starts at the dashboard's
// selected period.
func New(state *app.State, source Source) *Model {
	return &Model{
		state:    state,
		source:   source,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	if !m.state.IsAuthenticated() {
		return nil
	}
	return m.reload()
}

// reload starts a load unless one is running.
func (m *Model) reload() tea.Cmd {
	if m.loading {
		return nil
	}
	if m.period == "" {
		m.period = m.state.GetUsage().Period
		if m.period == "" {
			m.period = models.DefaultPeriod
		}
	}
	m.loading = true
	return m.loadHistoryCmd(m.period)
}

var errNoSource = errors.New("history is not available")

// loadHistoryCmd reads snapshots for period plus the latest session events.
func (m *Model) loadHistoryCmd(period models.Period) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		if source == nil {
			return loadFailedMsg{err: errNoSource}
		}
		snapshots, err := source.SnapshotHistory(period, snapshotLimit)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		events, err := source.SessionEvents(eventLimit)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return loadedMsg{period: period, snapshots: snapshots, events: events}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		// A toggle may have raced the load.
		if msg.period != m.period {
			cmds = append(cmds, m.reload())
			break
		}
		m.snapshots = msg.snapshots
		m.events = msg.events
		m.loaded = true
		m.errorMsg = ""

	case loadFailedMsg:
		m.loading = false
		m.errorMsg = msg.err.Error()
		cmds = append(cmds, app.Toast(app.NotificationError, "History error: "+m.errorMsg))

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory {
			cmds = append(cmds, m.reload())
		}

	case app.UsageUpdatedMsg:
		// Each successful poll records a new snapshot.
		if !msg.State.UpdatedAt.IsZero() {
			cmds = append(cmds, m.reload())
		}

	case app.SessionChangedMsg:
		if !msg.Session.IsAuthenticated {
			m.snapshots = nil
			m.events = nil
			m.loaded = false
			m.errorMsg = ""
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		if m.period == "" {
			m.period = models.DefaultPeriod
		}
		m.period = m.period.Next()
		cmds = append(cmds, m.reload())

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// Period returns the range currently shown.
func (m *Model) Period() models.Period {
	return m.period
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange},
		{m.keys.Up, m.keys.Down},
	}
}
