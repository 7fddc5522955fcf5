// Package account provides the account tab: profile, settings, registered
// provider API keys and application info.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/gateway"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

const (
	formSettings = "settings"
	formAddKey   = "apikey"

	actionTimeout = 30 * time.Second
)

// Actions is the part of the service manager the account tab drives.
type Actions interface {
	APIKeys(ctx context.Context) ([]models.APIKey, error)
	CreateAPIKey(ctx context.Context, in models.APIKeyInput) (*models.APIKey, error)
	SetAPIKeyActive(ctx context.Context, id string, active bool) (*models.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	UpdateSettings(ctx context.Context, update models.SettingsUpdate) error
}

// keyMap defines the key bindings specific to the account tab.
type keyMap struct {
	Toggle   key.Binding
	Delete   key.Binding
	Add      key.Binding
	Settings key.Binding
	Confirm  key.Binding
	Escape   key.Binding
}

// defaultKeyMap returns the default key bindings for the account tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "enable/disable key"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete key"),
		),
		Add: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "add key"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "edit profile"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc", "n", "N"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// keysLoadedMsg carries the API key list.
type keysLoadedMsg struct {
	err  error
	keys []models.APIKey
}

// keyChangedMsg reports a create, toggle or delete.
type keyChangedMsg struct {
	err    error
	key    *models.APIKey
	id     string
	action string
}

// settingsSavedMsg reports a profile update.
type settingsSavedMsg struct {
	err error
}

// Model represents the account tab state.
type Model struct {
	state   *app.State
	actions Actions
	config  *config.Config
	keys    keyMap
	table   table.Model
	spinner components.LoadingSpinner

	settings components.Form
	addKey   components.Form

	apiKeys    []models.APIKey
	keysLoaded bool
	loading    bool
	keysError  string

	confirmDelete bool
	deleteKey     models.APIKey

	width  int
	height int
}

// New creates a new account model.
func New(state *app.State, actions Actions, cfg *config.Config) *Model {
	t := table.New(
		table.WithColumns(tableColumns(60)),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:   state,
		actions: actions,
		config:  cfg,
		keys:    defaultKeyMap(),
		table:   t,
		spinner: components.NewSpinner("Loading API keys..."),
		settings: components.NewForm(formSettings, "Edit profile", []components.FieldSpec{
			{Key: "name", Label: "Name", CharLimit: 100},
			{Key: "organization", Label: "Organization", CharLimit: 100},
			{Key: "password", Label: "New password", Placeholder: "leave blank to keep", Secret: true},
			{Key: "confirm", Label: "Confirm password", Secret: true},
		}),
		addKey: components.NewForm(formAddKey, "Add API key", []components.FieldSpec{
			{Key: "name", Label: "Name", Placeholder: "Production", CharLimit: 100},
			{Key: "provider", Label: "Provider", Placeholder: "openai, anthropic, ...", CharLimit: 50},
			{Key: "key", Label: "API key", Secret: true, CharLimit: 500},
		}),
	}
}

// Init initializes the account tab.
func (m *Model) Init() tea.Cmd {
	if !m.state.IsAuthenticated() {
		return nil
	}
	return m.loadKeys()
}

// CapturingInput reports whether a form or the delete prompt owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.settings.Focused() || m.addKey.Focused() || m.confirmDelete
}

// APIKeys returns the loaded key list.
func (m *Model) APIKeys() []models.APIKey {
	return m.apiKeys
}

func (m *Model) loadKeys() tea.Cmd {
	if m.actions == nil || m.loading {
		return nil
	}
	m.loading = true
	actions := m.actions
	return tea.Batch(m.spinner.Tick(), func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		keys, err := actions.APIKeys(ctx)
		return keysLoadedMsg{keys: keys, err: err}
	})
}

// Update handles messages for the account tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case keysLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.keysError = errorText(msg.err)
			return m, errorCmd(msg.err, "API keys")
		}
		m.keysError = ""
		m.keysLoaded = true
		m.apiKeys = msg.keys
		m.updateTableData()
		return m, nil

	case keyChangedMsg:
		return m, m.handleKeyChanged(msg)

	case settingsSavedMsg:
		m.settings.SetBusy(false)
		if msg.err != nil {
			m.settings.SetError(errorText(msg.err))
			m.settings.SetValue("password", "")
			m.settings.SetValue("confirm", "")
			return m, nil
		}
		m.settings.Blur()
		m.settings.Reset()
		return m, nil

	case components.FormSubmitMsg:
		return m, m.submit(msg)

	case components.FormCancelMsg:
		m.closeForms()
		return m, nil

	case app.TabSwitchMsg:
		if msg.Tab == app.TabAccount {
			return m, m.loadKeys()
		}
		return m, nil

	case app.SessionChangedMsg:
		if !msg.Session.IsAuthenticated {
			m.reset()
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}

	// Cursor blinks and spinner ticks.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	if m.settings.Focused() {
		m.settings, cmd = m.settings.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.addKey.Focused() {
		m.addKey, cmd = m.addKey.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.settings.Focused() {
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return cmd
	}
	if m.addKey.Focused() {
		var cmd tea.Cmd
		m.addKey, cmd = m.addKey.Update(msg)
		return cmd
	}
	if m.confirmDelete {
		return m.updateDeleteConfirm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Settings):
		m.settings.Reset()
		user := m.state.GetSession().User
		m.settings.SetValue("name", user.Field("name"))
		m.settings.SetValue("organization", user.Field("organization"))
		return m.settings.Focus()

	case key.Matches(msg, m.keys.Add):
		m.addKey.Reset()
		return m.addKey.Focus()

	case key.Matches(msg, m.keys.Toggle):
		selected, ok := m.selectedKey()
		if !ok || m.actions == nil {
			return nil
		}
		return m.toggleCmd(selected)

	case key.Matches(msg, m.keys.Delete):
		if selected, ok := m.selectedKey(); ok {
			m.confirmDelete = true
			m.deleteKey = selected
		}
		return nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

// updateDeleteConfirm handles the delete confirmation.
func (m *Model) updateDeleteConfirm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmDelete = false
		target := m.deleteKey
		m.deleteKey = models.APIKey{}
		if m.actions == nil {
			return nil
		}
		return m.deleteCmd(target)
	case key.Matches(msg, m.keys.Escape):
		m.confirmDelete = false
		m.deleteKey = models.APIKey{}
	}
	return nil
}

func (m *Model) submit(msg components.FormSubmitMsg) tea.Cmd {
	switch msg.Form {
	case formSettings:
		m.settings.SetError("")
		update := models.SettingsUpdate{
			Name:            strings.TrimSpace(msg.Values["name"]),
			Organization:    strings.TrimSpace(msg.Values["organization"]),
			Password:        msg.Values["password"],
			ConfirmPassword: msg.Values["confirm"],
		}
		if err := update.Validate(); err != nil {
			m.settings.SetError(err.Error())
			return nil
		}
		if m.actions == nil {
			return nil
		}
		m.settings.SetBusy(true)
		actions := m.actions
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			return settingsSavedMsg{err: actions.UpdateSettings(ctx, update)}
		}

	case formAddKey:
		m.addKey.SetError("")
		in := models.APIKeyInput{
			Name:     strings.TrimSpace(msg.Values["name"]),
			Provider: strings.ToLower(strings.TrimSpace(msg.Values["provider"])),
			APIKey:   strings.TrimSpace(msg.Values["key"]),
		}
		if err := in.Validate(); err != nil {
			m.addKey.SetError(err.Error())
			return nil
		}
		if m.actions == nil {
			return nil
		}
		m.addKey.SetBusy(true)
		actions := m.actions
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			created, err := actions.CreateAPIKey(ctx, in)
			return keyChangedMsg{action: "create", key: created, err: err}
		}
	}
	return nil
}

func (m *Model) toggleCmd(target models.APIKey) tea.Cmd {
	actions := m.actions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		updated, err := actions.SetAPIKeyActive(ctx, target.ID, !target.IsActive)
		return keyChangedMsg{action: "toggle", id: target.ID, key: updated, err: err}
	}
}

func (m *Model) deleteCmd(target models.APIKey) tea.Cmd {
	actions := m.actions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return keyChangedMsg{action: "delete", id: target.ID, err: actions.DeleteAPIKey(ctx, target.ID)}
	}
}

func (m *Model) handleKeyChanged(msg keyChangedMsg) tea.Cmd {
	if msg.action == "create" {
		m.addKey.SetBusy(false)
		if msg.err != nil {
			m.addKey.SetError(errorText(msg.err))
			return nil
		}
		m.addKey.Blur()
		m.addKey.Reset()
		if msg.key != nil {
			m.apiKeys = append(m.apiKeys, *msg.key)
			m.updateTableData()
		}
		return nil
	}

	if msg.err != nil {
		return errorCmd(msg.err, "API key")
	}

	switch msg.action {
	case "toggle":
		for i := range m.apiKeys {
			if m.apiKeys[i].ID != msg.id {
				continue
			}
			if msg.key != nil {
				m.apiKeys[i] = *msg.key
			} else {
				m.apiKeys[i].IsActive = !m.apiKeys[i].IsActive
			}
			state := "disabled"
			if m.apiKeys[i].IsActive {
				state = "enabled"
			}
			name := m.apiKeys[i].Name
			m.updateTableData()
			return app.Toast(app.NotificationInfo, name+" "+state)
		}
	case "delete":
		kept := m.apiKeys[:0]
		for _, k := range m.apiKeys {
			if k.ID != msg.id {
				kept = append(kept, k)
			}
		}
		m.apiKeys = kept
		m.updateTableData()
	}
	return nil
}

// errorCmd hands the error to the root model, which skips ones the service
// layer already announced.
func errorCmd(err error, label string) tea.Cmd {
	return func() tea.Msg { return app.ErrorMsg{Error: err, Context: label} }
}

// errorText prefers the server's own message.
func errorText(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return err.Error()
}

func (m *Model) selectedKey() (models.APIKey, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.apiKeys) {
		return models.APIKey{}, false
	}
	return m.apiKeys[i], true
}

func (m *Model) closeForms() {
	m.settings.Blur()
	m.settings.Reset()
	m.addKey.Blur()
	m.addKey.Reset()
}

func (m *Model) reset() {
	m.closeForms()
	m.apiKeys = nil
	m.keysLoaded = false
	m.keysError = ""
	m.confirmDelete = false
	m.deleteKey = models.APIKey{}
	m.table.SetRows(nil)
}

// updateTableData updates the table with the current key list.
func (m *Model) updateTableData() {
	rows := make([]table.Row, 0, len(m.apiKeys))
	for _, k := range m.apiKeys {
		status := "disabled"
		if k.IsActive {
			status = "* active"
		}
		created := "-"
		if !k.CreatedAt.IsZero() {
			created = k.CreatedAt.Local().Format("2006-01-02")
		}
		rows = append(rows, table.Row{k.Name, k.Provider, k.KeyPreview, status, created})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func tableColumns(width int) []table.Column {
	nameWidth := min(max(width-60, 16), 32)
	return []table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "Provider", Width: 12},
		{Title: "Key", Width: 16},
		{Title: "Status", Width: 10},
		{Title: "Created", Width: 12},
	}
}

// SetSize sets the available size for the account tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(min(max(height-24, 4), 12))
	m.table.SetColumns(tableColumns(width))
	formWidth := min(max(width/2, 30), 50)
	m.settings.SetWidth(formWidth)
	m.addKey.SetWidth(formWidth)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	switch {
	case m.settings.Focused():
		return m.settings.ShortHelp()
	case m.addKey.Focused():
		return m.addKey.ShortHelp()
	case m.confirmDelete:
		return []key.Binding{m.keys.Confirm, m.keys.Escape}
	}
	return []key.Binding{
		m.keys.Toggle,
		m.keys.Delete,
		m.keys.Add,
		m.keys.Settings,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Toggle, m.keys.Delete},
		{m.keys.Add, m.keys.Settings},
	}
}
