// Package auth provides the sign-in and registration screen shown while no
// user is signed in.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/gateway"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
)

const (
	formLogin    = "login"
	formRegister = "register"

	submitTimeout = 30 * time.Second
)

// Authenticator signs a user in. *services.Manager implements it.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) error
	Register(ctx context.Context, reg models.Registration) error
}

type keyMap struct {
	SwitchMode key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		SwitchMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "sign in / register"),
		),
	}
}

// Model is the auth screen.
type Model struct {
	state    *app.State
	auth     Authenticator
	keys     keyMap
	login    components.Form
	register components.Form
	mode     string
	width    int
	height   int
}

// New creates the auth screen.
func New(state *app.State, auth Authenticator) *Model {
	m := &Model{
		state: state,
		auth:  auth,
		keys:  defaultKeyMap(),
		mode:  formLogin,
		login: components.NewForm(formLogin, "Sign in", []components.FieldSpec{
			{Key: "email", Label: "Email", Placeholder: "you@example.com"},
			{Key: "password", Label: "Password", Secret: true},
		}),
		register: components.NewForm(formRegister, "Create account", []components.FieldSpec{
			{Key: "name", Label: "Name", CharLimit: 100},
			{Key: "organization", Label: "Organization", Placeholder: "optional", CharLimit: 100},
			{Key: "email", Label: "Email", Placeholder: "you@example.com"},
			{Key: "password", Label: "Password", Secret: true},
			{Key: "confirm", Label: "Confirm password", Secret: true},
		}),
	}
	return m
}

// Init focuses the sign-in form.
func (m *Model) Init() tea.Cmd {
	return m.login.Focus()
}

// CapturingInput reports that every key belongs to the form.
func (m *Model) CapturingInput() bool {
	return true
}

// Mode returns "login" or "register".
func (m *Model) Mode() string {
	return m.mode
}

func (m *Model) active() *components.Form {
	if m.mode == formRegister {
		return &m.register
	}
	return &m.login
}

// Update handles messages for the auth screen.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.SwitchMode) {
			return m, m.switchMode()
		}

	case components.FormSubmitMsg:
		return m, m.submit(msg)

	case components.FormCancelMsg:
		m.active().Reset()
		return m, nil

	case app.AuthResultMsg:
		m.handleResult(msg)
		return m, nil

	case app.SessionChangedMsg:
		if !msg.Session.IsAuthenticated && !m.active().Focused() {
			return m, m.active().Focus()
		}
		return m, nil
	}

	form := m.active()
	var cmd tea.Cmd
	*form, cmd = form.Update(msg)
	return m, cmd
}

func (m *Model) switchMode() tea.Cmd {
	m.active().Blur()
	m.active().SetError("")
	if m.mode == formLogin {
		m.mode = formRegister
	} else {
		m.mode = formLogin
	}
	return m.active().Focus()
}

func (m *Model) submit(msg components.FormSubmitMsg) tea.Cmd {
	form := m.active()
	form.SetError("")

	switch msg.Form {
	case formLogin:
		creds := models.Credentials{
			Email:    strings.TrimSpace(msg.Values["email"]),
			Password: msg.Values["password"],
		}
		if err := creds.Validate(); err != nil {
			form.SetError(err.Error())
			return nil
		}
		form.SetBusy(true)
		return m.loginCmd(creds)

	case formRegister:
		reg := models.Registration{
			Name:         strings.TrimSpace(msg.Values["name"]),
			Organization: strings.TrimSpace(msg.Values["organization"]),
			Email:        strings.TrimSpace(msg.Values["email"]),
			Password:     msg.Values["password"],
		}
		if err := reg.Validate(); err != nil {
			form.SetError(err.Error())
			return nil
		}
		if reg.Password != msg.Values["confirm"] {
			form.SetError(models.PasswordMismatchMessage)
			return nil
		}
		form.SetBusy(true)
		return m.registerCmd(reg)
	}
	return nil
}

func (m *Model) loginCmd(creds models.Credentials) tea.Cmd {
	auth := m.auth
	return func() tea.Msg {
		if auth == nil {
			return app.AuthResultMsg{Error: errors.New("not connected")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return app.AuthResultMsg{Error: auth.Login(ctx, creds)}
	}
}

func (m *Model) registerCmd(reg models.Registration) tea.Cmd {
	auth := m.auth
	return func() tea.Msg {
		if auth == nil {
			return app.AuthResultMsg{Error: errors.New("not connected")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return app.AuthResultMsg{Error: auth.Register(ctx, reg)}
	}
}

func (m *Model) handleResult(msg app.AuthResultMsg) {
	form := m.active()
	form.SetBusy(false)
	if msg.Error == nil {
		m.register.Blur()
		m.register.Reset()
		m.login.Reset()
		m.mode = formLogin
		return
	}
	form.SetError(authErrorText(msg.Error))
	form.SetValue("password", "")
	form.SetValue("confirm", "")
}

// authErrorText prefers the server's wording for rejected credentials.
func authErrorText(err error) string {
	if kind, ok := gateway.KindOf(err); ok && kind == gateway.KindAuthExpired {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) && gwErr.Message != "" {
			return gwErr.Message
		}
		return "Invalid email or password"
	}
	return err.Error()
}

// SetSize sets the available size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	formWidth := min(max(width/2, 30), 50)
	m.login.SetWidth(formWidth)
	m.register.SetWidth(formWidth)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return append([]key.Binding{m.keys.SwitchMode}, m.active().ShortHelp()...)
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}
