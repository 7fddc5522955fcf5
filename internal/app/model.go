// Package app is the root Bubble Tea model: it owns the shared State, routes
// service events to the tabs and swaps in the sign-in screen while no user
// is authenticated.
package app

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/gateway"
	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// TabID identifies one of the signed-in tabs.
type TabID int

const (
	TabDashboard TabID = iota
	TabHistory
	TabAccount
)

var tabNames = [...]string{"Dashboard", "History", "Account"}

func (t TabID) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "Unknown"
	}
	return tabNames[t]
}

// Tab is a screen hosted by the model.
type Tab interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Tab, tea.Cmd)
	View() string
	SetSize(width, height int)
	ShortHelp() []key.Binding
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by screens that are editing text and need
// every key, including the global shortcuts.
type InputCapturer interface {
	CapturingInput() bool
}

// chromeHeight is the navbar plus its border and padding.
const chromeHeight = 5

// Model is the root model.
type Model struct {
	tabs       []Tab
	authScreen Tab
	activeTab  TabID

	state    *State
	services *services.Manager
	keymap   KeyMap
	chrome   chrome
	spinner  spinner.Model

	width, height int
	ready         bool
	showHelp      bool

	eventChannel <-chan services.ServiceEvent
}

// NewModel creates the root model. mgr may be nil in tests, in which case
// every service-backed action is a no-op.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		tabs:     make([]Tab, len(tabNames)),
		state:    NewState(),
		services: mgr,
		keymap:   DefaultKeyMap(),
		chrome:   newChrome(),
		spinner:  s,
	}
}

// SetTabs installs the signed-in tabs in TabID order.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	m.resize()
}

// SetAuthScreen installs the screen shown while signed out.
func (m *Model) SetAuthScreen(screen Tab) {
	m.authScreen = screen
	m.resize()
}

// GetState returns the state shared with the tabs.
func (m *Model) GetState() *State {
	return m.state
}

// showingAuth reports whether the sign-in screen replaces the tabs.
func (m *Model) showingAuth() bool {
	return m.authScreen != nil && !m.state.IsAuthenticated() && !m.state.IsInitialLoading()
}

// current is the screen receiving input, or nil.
func (m *Model) current() Tab {
	if m.showingAuth() {
		return m.authScreen
	}
	if int(m.activeTab) < len(m.tabs) {
		return m.tabs[m.activeTab]
	}
	return nil
}

// Init restores the session and subscribes to service events.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Checking session...")
	cmds := []tea.Cmd{m.spinner.Tick, defaultTickCmd()}

	if m.services != nil {
		m.state.SetSession(m.services.Session())
		m.state.SetUsage(m.services.UsageState())
		cmds = append(cmds, subscribeToServicesCmd(m.services), checkAuthCmd(m.services))
	} else {
		m.state.SetLoading("initial", false)
		m.state.ClearLoadingNotification()
	}

	if m.authScreen != nil {
		cmds = append(cmds, m.authScreen.Init())
	}
	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}
	return tea.Batch(cmds...)
}

// Update handles global messages, then forwards msg to the visible screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	add := func(cmd tea.Cmd) {
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height, m.ready = msg.Width, msg.Height, true
		m.resize()

	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		add(cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		add(cmd)

	case TickMsg:
		m.state.ClearExpiredNotifications()
		add(defaultTickCmd())

	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		add(waitForServiceEventCmd(m.eventChannel))

	case ServiceEventMsg:
		add(m.handleServiceEvent(msg.Event))
		if m.eventChannel != nil {
			add(waitForServiceEventCmd(m.eventChannel))
		}

	case CheckAuthResultMsg:
		m.stopLoading("initial")
		if m.services != nil {
			m.state.SetSession(m.services.Session())
		}
		if msg.Error != nil {
			logger.Debug("startup session check failed", "error", msg.Error)
		}

	case AuthResultMsg:
		if msg.Error == nil {
			m.activeTab = TabDashboard
			m.resize()
		}

	case LogoutMsg:
		if m.services != nil {
			add(logoutCmd(m.services))
		}

	case PredictionsLoadedMsg:
		m.state.SetPredictions(msg.State)
		add(m.handleError(ErrorMsg{Error: msg.Error, Context: "Predictions"}))

	case PeriodChangedMsg:
		if m.services != nil {
			m.services.SetPeriod(msg.Period)
		}

	case ExportResultMsg:
		m.stopLoading("export")
		add(m.handleError(ErrorMsg{Error: msg.Error, Context: "Export failed"}))

	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			add(clearNotificationCmd(id, msg.Duration))
		}

	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearNotificationsMsg:
		m.state.ClearAllNotifications()
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()

	case StartLoadingMsg:
		m.state.SetLoading(msg.Resource, true)
		m.state.SetLoadingNotification("Refreshing...")
	case StopLoadingMsg:
		m.stopLoading(msg.Resource)

	case ErrorMsg:
		add(m.handleError(msg))

	case RefreshMsg:
		cmds = append(cmds, m.refresh(msg)...)

	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.resize()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	case QuitMsg:
		add(tea.Quit)
	}

	if screen := m.current(); screen != nil {
		var cmd tea.Cmd
		if m.showingAuth() {
			m.authScreen, cmd = screen.Update(msg)
		} else {
			m.tabs[m.activeTab], cmd = screen.Update(msg)
		}
		add(cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) stopLoading(resource string) {
	m.state.SetLoading(resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

// handleError toasts err unless it is a gateway error, which the gateway's
// notifier has already shown.
func (m *Model) handleError(msg ErrorMsg) tea.Cmd {
	if msg.Error == nil {
		return nil
	}
	if _, ok := gateway.KindOf(msg.Error); ok {
		return nil
	}
	if msg.Context != "" {
		return errorToastCmd(fmt.Sprintf("%s: %v", msg.Context, msg.Error))
	}
	return errorToastCmd(msg.Error.Error())
}

// refresh is a no-op while signed out.
func (m *Model) refresh(msg RefreshMsg) []tea.Cmd {
	if m.services == nil || !m.state.IsAuthenticated() {
		return nil
	}
	switch msg.Resource {
	case "all", "usage":
		return []tea.Cmd{refetchCmd(m.services)}
	case "predictions":
		return []tea.Cmd{
			func() tea.Msg { return StartLoadingMsg(msg) },
			loadPredictionsCmd(m.services),
		}
	}
	return nil
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := max(m.height-chromeHeight, 0)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, h)
		}
	}
	if m.authScreen != nil {
		m.authScreen.SetSize(m.width, h)
	}
}

// handleKeyMsg applies global bindings. handled=true keeps the key from the
// visible screen.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		return tea.Quit, true
	}
	if c, ok := m.current().(InputCapturer); ok && c.CapturingInput() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil, true
	case key.Matches(msg, m.keymap.Escape) && m.showHelp:
		m.showHelp = false
		return nil, true
	}

	// Tab navigation and session actions need a signed-in user.
	if m.showingAuth() || !m.state.IsAuthenticated() {
		return nil, false
	}

	n := len(m.tabs)
	switch {
	case key.Matches(msg, m.keymap.Tab1):
		return m.switchTab(TabDashboard), true
	case key.Matches(msg, m.keymap.Tab2):
		return m.switchTab(TabHistory), true
	case key.Matches(msg, m.keymap.Tab3):
		return m.switchTab(TabAccount), true
	case key.Matches(msg, m.keymap.NextTab):
		if m.showHelp || n == 0 {
			return nil, true
		}
		return m.switchTab(TabID((int(m.activeTab) + 1) % n)), true
	case key.Matches(msg, m.keymap.PrevTab):
		if m.showHelp || n == 0 {
			return nil, true
		}
		return m.switchTab(TabID((int(m.activeTab) + n - 1) % n)), true
	case key.Matches(msg, m.keymap.Refresh):
		if m.services == nil {
			return nil, true
		}
		return refetchCmd(m.services), true
	case key.Matches(msg, m.keymap.Logout):
		if m.services == nil {
			return nil, true
		}
		return logoutCmd(m.services), true
	}
	return nil, false
}

// switchTab activates id and tells the tab it became visible.
func (m *Model) switchTab(id TabID) tea.Cmd {
	if id == m.activeTab {
		return nil
	}
	m.activeTab = id
	m.resize()
	return func() tea.Msg { return TabSwitchMsg{Tab: id} }
}

// handleServiceEvent mirrors manager events into State and re-emits the
// ones tabs care about as app messages.
func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.SessionChangedEvent:
		signingIn := !m.state.IsAuthenticated() && e.Session.IsAuthenticated
		m.state.SetSession(e.Session)
		if !e.Session.IsAuthenticated && !e.Session.IsLoading && e.Session.Token == "" {
			m.state.Reset()
		}
		if signingIn {
			m.activeTab = TabDashboard
			m.resize()
		}
		return func() tea.Msg { return SessionChangedMsg{Session: e.Session} }

	case services.SessionExpiredEvent:
		m.state.Reset()

	case services.UsageUpdatedEvent:
		m.state.SetUsage(e.State)
		return func() tea.Msg { return UsageUpdatedMsg{State: e.State} }

	case services.NotificationEvent:
		return notificationCmd(e.Notification)

	case services.ErrorEvent:
		// The gateway already routed the user to sign in again.
		if errors.Is(e.Error, gateway.ErrAuthExpired) {
			return nil
		}
		return errorToastCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}
	return nil
}
