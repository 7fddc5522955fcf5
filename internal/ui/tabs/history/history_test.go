package history

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/poller"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
)

type fakeSource struct {
	snapshots map[models.Period][]models.StatsSnapshot
	events    []models.SessionEvent
	err       error
	calls     []models.Period
}

func (f *fakeSource) SnapshotHistory(period models.Period, _ int) ([]models.StatsSnapshot, error) {
	f.calls = append(f.calls, period)
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshots[period], nil
}

func (f *fakeSource) SessionEvents(int) ([]models.SessionEvent, error) {
	return f.events, nil
}

func signedInState() *app.State {
	state := app.NewState()
	state.SetLoading("initial", false)
	state.SetSession(models.Session{IsAuthenticated: true, Token: "tok"})
	return state
}

// drain runs cmd and feeds the result back into the model until it settles.
func drain(m *Model, cmd tea.Cmd) []tea.Msg {
	var msgs []tea.Msg
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		msgs = append(msgs, msg)
		_, cmd = m.Update(msg)
	}
	return msgs
}

func TestNew(t *testing.T) {
	state := app.NewState()
	m := New(state, nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
}

func TestModel_InitSignedOut(t *testing.T) {
	m := New(app.NewState(), &fakeSource{})
	if m.Init() != nil {
		t.Error("Init should not load while signed out")
	}
}

func TestModel_LoadsOnTabSwitch(t *testing.T) {
	state := signedInState()
	state.SetUsage(poller.State{Period: models.Period30Days})
	src := &fakeSource{snapshots: map[models.Period][]models.StatsSnapshot{
		models.Period30Days: {{TotalCost: 1}, {TotalCost: 2}},
	}}
	m := New(state, src)

	_, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabHistory})
	drain(m, cmd)

	if m.Period() != models.Period30Days {
		t.Errorf("Period = %s, want the dashboard's period", m.Period())
	}
	if len(m.snapshots) != 2 || !m.loaded {
		t.Errorf("snapshots = %d, loaded = %v", len(m.snapshots), m.loaded)
	}

	// Other tabs' switches are ignored.
	if _, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabAccount}); cmd != nil {
		t.Error("expected no reload for another tab")
	}
}

func TestModel_ToggleRange(t *testing.T) {
	src := &fakeSource{}
	m := New(signedInState(), src)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	drain(m, cmd)

	if m.Period() != models.Period30Days {
		t.Errorf("Period = %s, want 30d after toggling from the default", m.Period())
	}
	if len(src.calls) != 1 || src.calls[0] != models.Period30Days {
		t.Errorf("calls = %v", src.calls)
	}
}

func TestModel_ToggleDuringLoadReloads(t *testing.T) {
	src := &fakeSource{}
	m := New(signedInState(), src)

	first := m.reload()
	// Toggle while the first load is in flight.
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})

	drain(m, first)
	if got := src.calls[len(src.calls)-1]; got != models.Period30Days {
		t.Errorf("last load = %s, want 30d", got)
	}
	if m.loading {
		t.Error("loading flag should be cleared")
	}
}

func TestModel_ReloadOnUsageUpdate(t *testing.T) {
	src := &fakeSource{}
	m := New(signedInState(), src)

	if _, cmd := m.Update(app.UsageUpdatedMsg{}); cmd != nil {
		t.Error("an empty update should not reload")
	}
	_, cmd := m.Update(app.UsageUpdatedMsg{State: poller.State{UpdatedAt: time.Now()}})
	drain(m, cmd)
	if len(src.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(src.calls))
	}
}

func TestModel_Error(t *testing.T) {
	src := &fakeSource{err: errors.New("database is locked")}
	m := New(signedInState(), src)
	m.SetSize(100, 40)

	msgs := drain(m, m.reload())
	if len(msgs) != 2 {
		t.Fatalf("msgs = %#v", msgs)
	}
	if n, ok := msgs[1].(app.AddNotificationMsg); !ok || n.Type != app.NotificationError {
		t.Errorf("notification = %#v", msgs[1])
	}
	if !strings.Contains(m.View(), "database is locked") {
		t.Error("view should show the error")
	}
}

func TestModel_SignOutClears(t *testing.T) {
	m := New(signedInState(), &fakeSource{})
	m.Update(loadedMsg{period: "", snapshots: []models.StatsSnapshot{{TotalCost: 1}}})
	m.Update(app.SessionChangedMsg{Session: models.Session{}})
	if m.snapshots != nil || m.loaded {
		t.Error("history should be cleared on sign-out")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	m := New(signedInState(), nil)
	m.SetSize(100, 40)
	if view := m.View(); !strings.Contains(view, "No historical data") {
		t.Errorf("view = %q", view)
	}
}

func TestModel_View(t *testing.T) {
	state := signedInState()
	now := time.Now()
	state.SetUsage(poller.State{
		UpdatedAt: now,
		Period:    models.Period7Days,
		Data: []models.UsageRecord{
			{Timestamp: now, ModelName: "gpt-4o", Cost: 2, Requests: 3},
		},
	})
	m := New(state, nil)
	m.SetSize(120, 200)
	m.period = models.Period7Days

	m.Update(loadedMsg{
		period: models.Period7Days,
		snapshots: []models.StatsSnapshot{
			{RecordedAt: now.Add(-time.Hour), TotalCost: 1, TotalRequests: 10},
			{RecordedAt: now, TotalCost: 2, TotalRequests: 12, TotalErrors: 1, ErrorRate: 8.3},
		},
		events: []models.SessionEvent{
			{Timestamp: now, Type: models.SessionEventLogin, User: "ada@example.com"},
		},
	})

	view := m.View()
	for _, want := range []string{
		"Last 7 Days",
		"2 snapshots",
		"$2.00",
		"+100.0%",
		"Weekly Pattern",
		"Peak day",
		"Session Log",
		"ada@example.com",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestCostChange(t *testing.T) {
	if costChange(nil) != nil {
		t.Error("expected nil without a baseline")
	}
	if costChange([]models.StatsSnapshot{{TotalCost: 0}, {TotalCost: 5}}) != nil {
		t.Error("expected nil for a zero baseline")
	}
	got := costChange([]models.StatsSnapshot{{TotalCost: 4}, {TotalCost: 3}})
	if got == nil || *got != -25 {
		t.Errorf("costChange = %v, want -25", got)
	}
}

func TestWeekdayTotals(t *testing.T) {
	// 2026-03-09 is a Monday.
	monday := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	cost, requests := weekdayTotals([]models.UsageRecord{
		{Timestamp: monday, Cost: 1, Requests: 2},
		{Timestamp: monday.Add(time.Hour), Cost: 0.5},
		{Timestamp: monday.Add(24 * time.Hour), Cost: 4},
	}, time.UTC)

	if cost[1] != 1.5 || requests[1] != 3 {
		t.Errorf("monday = %v/%v", cost[1], requests[1])
	}
	if day, val := peakDay(cost); day != "Tue" || val != 4 {
		t.Errorf("peakDay = %s %v", day, val)
	}
	if day, _ := peakDay(make([]float64, 7)); day != "" {
		t.Errorf("peakDay of zeros = %q", day)
	}
}

func TestModel_WithManager(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		APIURL:          "http://127.0.0.1:1/api/v1",
		SessionPath:     filepath.Join(dir, "session.json"),
		DatabasePath:    filepath.Join(dir, "usage.db"),
		DefaultPeriod:   models.Period7Days,
		RequestTimeout:  time.Second,
		RefreshInterval: time.Minute,
	}
	mgr, err := services.NewManager(cfg)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer mgr.Close()

	// Seed DB
	err = mgr.Database().RecordCycle(models.Period7Days, nil, models.StatsSummary{TotalCost: 3.5, TotalRequests: 7}, time.Now())
	if err != nil {
		t.Fatalf("Failed to seed DB: %v", err)
	}

	m := New(signedInState(), mgr)
	m.SetSize(100, 80)
	drain(m, m.reload())

	if len(m.snapshots) != 1 || m.snapshots[0].TotalCost != 3.5 {
		t.Fatalf("snapshots = %+v", m.snapshots)
	}
	if !strings.Contains(m.View(), "$3.50") {
		t.Error("view should show the recorded cost")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
