package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/poller"
	"github.com/j-veylop/usage-dashboard-tui/internal/predictions"
	"github.com/j-veylop/usage-dashboard-tui/internal/session"
)

// ErrNotSignedIn is returned by data operations while no user is signed in.
var ErrNotSignedIn = errors.New("not signed in")

// Session returns the current session snapshot.
func (m *Manager) Session() models.Session {
	return m.session.Session()
}

// Login signs in with email and password.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) error {
	if err := m.session.Login(ctx, creds); err != nil {
		return err
	}
	m.recordSessionEvent(models.SessionEventLogin, m.session.Session().User.DisplayName())
	return nil
}

// Register creates an account and signs in with it.
func (m *Manager) Register(ctx context.Context, reg models.Registration) error {
	if err := m.session.Register(ctx, reg); err != nil {
		return err
	}
	m.recordSessionEvent(models.SessionEventLogin, m.session.Session().User.DisplayName())
	return nil
}

// CheckAuth verifies the persisted token. Superseded checks are not errors.
func (m *Manager) CheckAuth(ctx context.Context) error {
	err := m.session.CheckAuth(ctx)
	if errors.Is(err, session.ErrSuperseded) {
		return nil
	}
	return err
}

// Logout signs out locally right away. The server is told afterwards in the
// background; that call cannot affect the outcome.
func (m *Manager) Logout() {
	s := m.session.Session()
	m.session.Logout()
	if err := m.database.ClearUsageCache(); err != nil {
		logger.Error("failed to clear usage cache", "error", err)
	}
	if s.Token == "" {
		return
	}
	m.recordSessionEvent(models.SessionEventLogout, s.User.DisplayName())

	if m.ctx.Err() != nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(m.ctx, logoutNoticeTimeout)
		defer cancel()
		if err := m.gateway.Logout(ctx, s.Token); err != nil {
			logger.Debug("server logout failed", "error", err)
		}
	}()
}

// UsageState returns the poller snapshot, or an empty one while signed out.
func (m *Manager) UsageState() poller.State {
	m.mu.RLock()
	p := m.poller
	period := m.period
	auto := m.autoRefresh
	m.mu.RUnlock()

	if p == nil {
		return poller.State{Period: period, AutoRefresh: auto}
	}
	return p.State()
}

// Period returns the selected window.
func (m *Manager) Period() models.Period {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.period
}

// SetPeriod switches the window for the running poller and future ones.
func (m *Manager) SetPeriod(period models.Period) {
	m.mu.Lock()
	m.period = period
	p := m.poller
	m.mu.Unlock()

	if p != nil {
		p.SetPeriod(period)
	}
}

// SetAutoRefresh toggles the refresh timer.
func (m *Manager) SetAutoRefresh(enabled bool) {
	m.mu.Lock()
	m.autoRefresh = enabled
	p := m.poller
	m.mu.Unlock()

	if p != nil {
		p.SetAutoRefresh(enabled)
	}
}

// Refetch starts a manual fetch cycle.
func (m *Manager) Refetch() {
	m.mu.RLock()
	p := m.poller
	m.mu.RUnlock()

	if p != nil {
		p.Refetch()
	}
}

func (m *Manager) fetcher() (*predictions.Fetcher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.predictions == nil {
		return nil, ErrNotSignedIn
	}
	return m.predictions, nil
}

// LoadPredictions loads forecasts once per signed-in session.
func (m *Manager) LoadPredictions(ctx context.Context) (predictions.State, error) {
	f, err := m.fetcher()
	if err != nil {
		return predictions.State{}, err
	}
	return f.Load(ctx), nil
}

// GeneratePrediction requests a new forecast.
func (m *Manager) GeneratePrediction(ctx context.Context) (predictions.State, error) {
	f, err := m.fetcher()
	if err != nil {
		return predictions.State{}, err
	}
	if _, err := f.Generate(ctx); err != nil {
		return f.State(), err
	}
	m.notifier.NotifySuccess("Prediction generated")
	return f.State(), nil
}

// Export downloads the usage export for period into dir and returns the
// written path.
func (m *Manager) Export(ctx context.Context, period models.Period, dir string) (string, error) {
	data, err := m.gateway.Export(ctx, period)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("usage-export-%d.json", m.clock.Now().UnixMilli())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	m.notifier.NotifySuccess("Exported to " + path)
	return path, nil
}

// UpdateSettings saves profile changes and refreshes the cached profile.
func (m *Manager) UpdateSettings(ctx context.Context, update models.SettingsUpdate) error {
	if err := m.gateway.UpdateSettings(ctx, update); err != nil {
		return err
	}
	m.notifier.NotifySuccess("Settings updated successfully")
	if err := m.CheckAuth(ctx); err != nil {
		logger.Warn("failed to refresh profile after settings update", "error", err)
	}
	return nil
}

// APIKeys lists the registered provider keys.
func (m *Manager) APIKeys(ctx context.Context) ([]models.APIKey, error) {
	return m.gateway.APIKeys(ctx)
}

// CreateAPIKey registers a provider key.
func (m *Manager) CreateAPIKey(ctx context.Context, in models.APIKeyInput) (*models.APIKey, error) {
	key, err := m.gateway.CreateAPIKey(ctx, in)
	if err != nil {
		return nil, err
	}
	m.notifier.NotifySuccess("API key added")
	return key, nil
}

// SetAPIKeyActive enables or disables a key.
func (m *Manager) SetAPIKeyActive(ctx context.Context, id string, active bool) (*models.APIKey, error) {
	return m.gateway.UpdateAPIKey(ctx, id, models.APIKeyInput{IsActive: &active})
}

// DeleteAPIKey removes a key.
func (m *Manager) DeleteAPIKey(ctx context.Context, id string) error {
	if err := m.gateway.DeleteAPIKey(ctx, id); err != nil {
		return err
	}
	m.notifier.NotifySuccess("API key deleted")
	return nil
}

// RecordUsage submits a usage row and refreshes the dashboard.
func (m *Manager) RecordUsage(ctx context.Context, in models.UsageRecordInput) (*models.UsageRecord, error) {
	rec, err := m.gateway.RecordUsage(ctx, in)
	if err != nil {
		return nil, err
	}
	m.Refetch()
	return rec, nil
}

// SnapshotHistory returns locally recorded stats for a period, oldest first.
func (m *Manager) SnapshotHistory(period models.Period, limit int) ([]models.StatsSnapshot, error) {
	return m.database.SnapshotHistory(period, limit)
}

// CachedUsage returns the last successful fetch for a period, if any.
func (m *Manager) CachedUsage(period models.Period) (*models.CachedUsage, error) {
	return m.database.CachedUsage(period)
}

// SessionEvents returns the newest sign-in, sign-out and expiry events.
func (m *Manager) SessionEvents(limit int) ([]models.SessionEvent, error) {
	return m.database.RecentSessionEvents(limit)
}
