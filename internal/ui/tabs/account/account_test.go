package account

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/gateway"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

type fakeActions struct {
	keys      []models.APIKey
	listErr   error
	createErr error
	created   []models.APIKeyInput
	toggled   map[string]bool
	deleted   []string
	settings  []models.SettingsUpdate
	updateErr error
}

func (f *fakeActions) APIKeys(context.Context) ([]models.APIKey, error) {
	return f.keys, f.listErr
}

func (f *fakeActions) CreateAPIKey(_ context.Context, in models.APIKeyInput) (*models.APIKey, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	return &models.APIKey{ID: "k-new", Name: in.Name, Provider: in.Provider, KeyPreview: "sk-...new", IsActive: true}, nil
}

func (f *fakeActions) SetAPIKeyActive(_ context.Context, id string, active bool) (*models.APIKey, error) {
	if f.toggled == nil {
		f.toggled = make(map[string]bool)
	}
	f.toggled[id] = active
	for _, k := range f.keys {
		if k.ID == id {
			k.IsActive = active
			return &k, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeActions) DeleteAPIKey(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeActions) UpdateSettings(_ context.Context, update models.SettingsUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.settings = append(f.settings, update)
	return nil
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func signedInState() *app.State {
	state := app.NewState()
	state.SetLoading("initial", false)
	state.SetSession(models.Session{
		IsAuthenticated: true,
		Token:           "tok",
		User:            models.UserProfile{"name": "Ada", "email": "ada@example.com", "organization": "Analytical"},
	})
	return state
}

func sampleKeys() []models.APIKey {
	return []models.APIKey{
		{ID: "k1", Name: "Production", Provider: "openai", KeyPreview: "sk-...abcd", IsActive: true},
		{ID: "k2", Name: "Staging", Provider: "anthropic", KeyPreview: "sk-...efgh"},
	}
}

// run executes cmd, feeds every resulting message back into the model and
// returns them. Spinner ticks are not fed back so the loop ends.
func run(m *Model, cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(m, c)...)
		}
		return out
	case spinner.TickMsg:
		return []tea.Msg{msg}
	}
	_, next := m.Update(msg)
	return append([]tea.Msg{msg}, run(m, next)...)
}

func loadedModel(t *testing.T, fa *fakeActions) *Model {
	t.Helper()
	m := New(signedInState(), fa, &config.Config{APIURL: "http://localhost:3000/api/v1"})
	m.SetSize(120, 60)
	run(m, m.Init())
	require.True(t, m.keysLoaded)
	return m
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(runeKey(r))
	}
}

func TestInit_SignedOut(t *testing.T) {
	m := New(app.NewState(), &fakeActions{}, nil)
	assert.Nil(t, m.Init())
}

func TestLoadKeys(t *testing.T) {
	m := loadedModel(t, &fakeActions{keys: sampleKeys()})

	assert.Len(t, m.APIKeys(), 2)
	view := m.View()
	assert.Contains(t, view, "Production")
	assert.Contains(t, view, "2 registered, 1 active")
	assert.Contains(t, view, "Ada")
	assert.Contains(t, view, "http://localhost:3000/api/v1")
}

func TestLoadKeys_Error(t *testing.T) {
	fa := &fakeActions{listErr: &gateway.Error{Kind: gateway.KindServer, Status: 500, Message: "Server error"}}
	m := New(signedInState(), fa, nil)
	m.SetSize(120, 60)

	msgs := run(m, m.Init())
	require.NotEmpty(t, msgs)
	last, ok := msgs[len(msgs)-1].(app.ErrorMsg)
	require.True(t, ok, "expected the error to be handed to the root model")
	assert.Equal(t, "API keys", last.Context)
	assert.Contains(t, m.View(), "Server error")
}

func TestReloadOnTabSwitch(t *testing.T) {
	fa := &fakeActions{keys: sampleKeys()}
	m := loadedModel(t, fa)

	fa.keys = fa.keys[:1]
	_, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabAccount})
	run(m, cmd)
	assert.Len(t, m.APIKeys(), 1)

	_, cmd = m.Update(app.TabSwitchMsg{Tab: app.TabHistory})
	assert.Nil(t, cmd)
}

func TestToggleKey(t *testing.T) {
	fa := &fakeActions{keys: sampleKeys()}
	m := loadedModel(t, fa)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msgs := run(m, cmd)

	assert.Equal(t, map[string]bool{"k1": false}, fa.toggled)
	assert.False(t, m.APIKeys()[0].IsActive)
	require.NotEmpty(t, msgs)
	note, ok := msgs[len(msgs)-1].(app.AddNotificationMsg)
	require.True(t, ok)
	assert.Equal(t, "Production disabled", note.Message)
}

func TestDeleteKey(t *testing.T) {
	fa := &fakeActions{keys: sampleKeys()}
	m := loadedModel(t, fa)

	m.Update(runeKey('d'))
	require.True(t, m.CapturingInput(), "the prompt owns the keyboard")
	assert.Contains(t, m.View(), "Delete API key?")

	// 'n' cancels.
	m.Update(runeKey('n'))
	assert.False(t, m.confirmDelete)
	assert.Empty(t, fa.deleted)

	m.Update(runeKey('d'))
	_, cmd := m.Update(runeKey('y'))
	run(m, cmd)

	assert.Equal(t, []string{"k1"}, fa.deleted)
	require.Len(t, m.APIKeys(), 1)
	assert.Equal(t, "k2", m.APIKeys()[0].ID)
}

func TestAddKey(t *testing.T) {
	fa := &fakeActions{}
	m := loadedModel(t, fa)

	m.Update(runeKey('n'))
	require.True(t, m.addKey.Focused())
	require.True(t, m.CapturingInput())

	// Enter walks the fields, then submits. An empty form stays local.
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, 2, m.addKey.FocusIndex())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)
	assert.Equal(t, "Name is required", m.addKey.Error())
	assert.Empty(t, fa.created)

	m.addKey.SetValue("name", "Personal")
	m.addKey.SetValue("provider", " OpenAI ")
	m.addKey.SetValue("key", "sk-secret")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)

	require.Len(t, fa.created, 1)
	assert.Equal(t, models.APIKeyInput{Name: "Personal", Provider: "openai", APIKey: "sk-secret"}, fa.created[0])
	assert.False(t, m.addKey.Focused())
	assert.Len(t, m.APIKeys(), 1)
}

func TestAddKey_ServerError(t *testing.T) {
	fa := &fakeActions{createErr: &gateway.Error{Kind: gateway.KindValidation, Status: 400, Message: "Invalid API key"}}
	m := loadedModel(t, fa)

	m.Update(runeKey('n'))
	m.addKey.SetValue("name", "Personal")
	m.addKey.SetValue("provider", "openai")
	m.addKey.SetValue("key", "bad")
	for m.addKey.FocusIndex() < 2 {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)

	assert.Equal(t, "Invalid API key", m.addKey.Error())
	assert.True(t, m.addKey.Focused(), "the form stays open")
	assert.False(t, m.addKey.Busy())
}

func TestEditSettings(t *testing.T) {
	fa := &fakeActions{}
	m := loadedModel(t, fa)

	m.Update(runeKey('s'))
	require.True(t, m.settings.Focused())
	assert.Equal(t, "Ada", m.settings.Value("name"), "prefilled from the profile")
	assert.Equal(t, "Analytical", m.settings.Value("organization"))

	// 'q' is typed, not treated as quit.
	typeText(m, "q")
	assert.Equal(t, "Adaq", m.settings.Value("name"))

	m.settings.SetValue("password", "newpass1")
	m.settings.SetValue("confirm", "different")
	for m.settings.FocusIndex() < 3 {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)
	assert.Equal(t, models.PasswordMismatchMessage, m.settings.Error())
	assert.Empty(t, fa.settings)

	m.settings.SetValue("confirm", "newpass1")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)

	require.Len(t, fa.settings, 1)
	assert.Equal(t, "Adaq", fa.settings[0].Name)
	assert.Equal(t, "newpass1", fa.settings[0].Password)
	assert.False(t, m.settings.Focused())
}

func TestEditSettings_Cancel(t *testing.T) {
	m := loadedModel(t, &fakeActions{})

	m.Update(runeKey('s'))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.False(t, m.settings.Focused())
	assert.False(t, m.CapturingInput())
}

func TestSignOutResets(t *testing.T) {
	m := loadedModel(t, &fakeActions{keys: sampleKeys()})
	m.Update(runeKey('n'))

	m.Update(app.SessionChangedMsg{Session: models.Session{}})
	assert.Empty(t, m.APIKeys())
	assert.False(t, m.addKey.Focused())
	assert.False(t, m.keysLoaded)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Email already in use",
		errorText(&gateway.Error{Kind: gateway.KindValidation, Status: 400, Message: "Email already in use"}))
	assert.Equal(t, "boom", errorText(errors.New("boom")))
}

func TestView_Empty(t *testing.T) {
	m := loadedModel(t, &fakeActions{})
	view := m.View()
	assert.Contains(t, view, "No API keys registered")
	assert.Contains(t, view, "Version")
}
