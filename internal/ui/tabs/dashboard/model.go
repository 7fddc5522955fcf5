// Package dashboard provides the usage overview tab.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/predictions"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
)

const actionTimeout = 30 * time.Second

// Actions is the part of the service manager the dashboard drives.
type Actions interface {
	SetAutoRefresh(enabled bool)
	Export(ctx context.Context, period models.Period, dir string) (string, error)
	LoadPredictions(ctx context.Context) (predictions.State, error)
	GeneratePrediction(ctx context.Context) (predictions.State, error)
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	NextPeriod  key.Binding
	PrevPeriod  key.Binding
	AutoRefresh key.Binding
	Export      key.Binding
	Forecast    key.Binding
	Reload      key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		NextPeriod: key.NewBinding(
			key.WithKeys("]", "p"),
			key.WithHelp("]/p", "next period"),
		),
		PrevPeriod: key.NewBinding(
			key.WithKeys("[", "P"),
			key.WithHelp("[/P", "prev period"),
		),
		AutoRefresh: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle auto-refresh"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Forecast: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "new forecast"),
		),
		Reload: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "reload forecasts"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state     *app.State
	actions   Actions
	now       func() time.Time
	exportDir string
	spinner   components.LoadingSpinner
	keys      keyMap
	viewport  viewport.Model
	width     int
	height    int

	// predictionsRequested is reset on sign-out so each session loads once.
	predictionsRequested bool
	generating           bool
}

// New creates a new dashboard model. exportDir receives exported files.
func New(state *app.State, actions Actions, exportDir string) *Model {
	return &Model{
		state:     state,
		actions:   actions,
		now:       time.Now,
		exportDir: exportDir,
		spinner:   components.NewSpinner("Loading usage..."),
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.SessionChangedMsg:
		if !msg.Session.IsAuthenticated {
			m.predictionsRequested = false
			m.generating = false
		}

	case app.UsageUpdatedMsg:
		if cmd := m.ensurePredictions(); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case app.PredictionsLoadedMsg:
		m.generating = false

	case tea.KeyMsg:
		if cmd := m.handleKeyMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// ensurePredictions requests forecasts once per signed-in session.
func (m *Model) ensurePredictions() tea.Cmd {
	if m.predictionsRequested || m.actions == nil || !m.state.IsAuthenticated() {
		return nil
	}
	m.predictionsRequested = true
	return m.loadPredictionsCmd()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	usage := m.state.GetUsage()

	switch {
	case key.Matches(msg, m.keys.NextPeriod):
		return periodCmd(usage.Period.Next())

	case key.Matches(msg, m.keys.PrevPeriod):
		return periodCmd(usage.Period.Prev())

	case key.Matches(msg, m.keys.AutoRefresh):
		if m.actions == nil {
			return nil
		}
		enabled := !usage.AutoRefresh
		actions := m.actions
		label := "Auto-refresh off"
		if enabled {
			label = "Auto-refresh on"
		}
		return tea.Batch(
			func() tea.Msg {
				actions.SetAutoRefresh(enabled)
				return nil
			},
			app.Toast(app.NotificationInfo, label),
		)

	case key.Matches(msg, m.keys.Export):
		if m.actions == nil || m.state.IsLoading("export") {
			return nil
		}
		return tea.Batch(
			func() tea.Msg { return app.StartLoadingMsg{Resource: "export"} },
			m.exportCmd(usage.Period),
		)

	case key.Matches(msg, m.keys.Forecast):
		if m.actions == nil || m.generating {
			return nil
		}
		m.generating = true
		return m.generateCmd()

	case key.Matches(msg, m.keys.Reload):
		if m.actions == nil {
			return nil
		}
		m.predictionsRequested = true
		return m.loadPredictionsCmd()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
}

func periodCmd(p models.Period) tea.Cmd {
	return func() tea.Msg { return app.PeriodChangedMsg{Period: p} }
}

func (m *Model) exportCmd(period models.Period) tea.Cmd {
	actions := m.actions
	dir := m.exportDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		path, err := actions.Export(ctx, period, dir)
		return app.ExportResultMsg{Path: path, Error: err}
	}
}

func (m *Model) loadPredictionsCmd() tea.Cmd {
	actions := m.actions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		state, err := actions.LoadPredictions(ctx)
		return app.PredictionsLoadedMsg{State: state, Error: err}
	}
}

func (m *Model) generateCmd() tea.Cmd {
	actions := m.actions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		state, err := actions.GeneratePrediction(ctx)
		return app.PredictionsLoadedMsg{State: state, Error: err}
	}
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.NextPeriod,
		m.keys.PrevPeriod,
		m.keys.AutoRefresh,
		m.keys.Export,
		m.keys.Forecast,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextPeriod, m.keys.PrevPeriod, m.keys.AutoRefresh},
		{m.keys.Export, m.keys.Forecast, m.keys.Reload},
		{m.keys.Up, m.keys.Down},
	}
}
