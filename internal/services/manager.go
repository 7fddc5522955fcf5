// Package services wires the gateway, session store, poller and local
// history together and fans their changes out as events.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/db"
	"github.com/j-veylop/usage-dashboard-tui/internal/gateway"
	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/notify"
	"github.com/j-veylop/usage-dashboard-tui/internal/poller"
	"github.com/j-veylop/usage-dashboard-tui/internal/predictions"
	"github.com/j-veylop/usage-dashboard-tui/internal/session"
	"github.com/j-veylop/usage-dashboard-tui/internal/storage"
	"github.com/j-veylop/usage-dashboard-tui/internal/version"
)

const (
	verifyTimeout       = 15 * time.Second
	logoutNoticeTimeout = 5 * time.Second
)

type (
	// SessionChangedEvent is emitted after every session transition.
	SessionChangedEvent struct {
		Session models.Session
	}

	// SessionExpiredEvent is emitted when the server rejected the token.
	SessionExpiredEvent struct{}

	// UsageUpdatedEvent is emitted when the poller state changes.
	UsageUpdatedEvent struct {
		State poller.State
	}

	// NotificationEvent carries a user-visible message.
	NotificationEvent struct {
		Notification notify.Notification
	}

	// ErrorEvent reports a background failure in the named service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is any event published by the Manager.
type ServiceEvent interface {
	isServiceEvent()
}

func (SessionChangedEvent) isServiceEvent() {}
func (SessionExpiredEvent) isServiceEvent() {}
func (UsageUpdatedEvent) isServiceEvent()   {}
func (NotificationEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()          {}

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient replaces the transport used by the gateway.
func WithHTTPClient(d gateway.Doer) Option {
	return func(m *Manager) { m.httpClient = d }
}

// WithClock replaces the clock driving the refresh timer and export names.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// Manager owns the client-side services for one configuration.
type Manager struct {
	ctx         context.Context
	clock       clock.Clock
	httpClient  gateway.Doer
	cfg         *config.Config
	gateway     *gateway.Client
	session     *session.Store
	storage     *storage.FileStore
	database    *db.DB
	notifier    *notify.Dispatcher
	poller      *poller.Poller
	predictions *predictions.Fetcher
	cancel      context.CancelFunc
	unsubscribe func()
	stopChan    chan struct{}
	subscribers []chan ServiceEvent
	period      models.Period
	wg          sync.WaitGroup
	closeOnce   sync.Once
	mu          sync.RWMutex
	autoRefresh bool
}

// NewManager builds the services and starts routing session changes. The
// caller must Close it.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		ctx:         ctx,
		cancel:      cancel,
		cfg:         cfg,
		clock:       clock.WallClock,
		stopChan:    make(chan struct{}),
		period:      cfg.DefaultPeriod,
		autoRefresh: cfg.AutoRefresh,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.period == "" {
		m.period = models.DefaultPeriod
	}

	m.notifier = notify.New(
		notify.SinkFunc(func(n notify.Notification) {
			m.broadcast(NotificationEvent{Notification: n})
		}),
		notify.SinkFunc(func(n notify.Notification) {
			logger.Debug("notification", "level", n.Level.String(), "message", n.Message)
		}),
	)
	if cfg.DesktopNotifications {
		m.notifier.AddSink(notify.NewDesktop("Usage Dashboard", notify.LevelError))
	}

	gwOpts := []gateway.Option{
		gateway.WithTokenSource(gateway.TokenFunc(m.token)),
		gateway.WithSessionExpiredHandler(gateway.SessionExpiredFunc(m.handleSessionExpired)),
		gateway.WithNotifier(m.notifier),
	}
	if m.httpClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(m.httpClient))
	}

	var err error
	m.gateway, err = gateway.New(gateway.Config{
		BaseURL:   cfg.APIURL,
		UserAgent: version.UserAgent(),
		Timeout:   cfg.RequestTimeout,
	}, gwOpts...)
	if err != nil {
		cancel()
		return nil, err
	}

	m.storage, err = storage.NewFileStore(cfg.SessionPath)
	if err != nil {
		cancel()
		return nil, err
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.session = session.New(m.gateway, m.storage)

	if err := m.storage.Watch(); err != nil {
		logger.Warn("failed to watch session file", "path", cfg.SessionPath, "error", err)
	}

	sessions, unsubscribe := m.session.Subscribe()
	m.unsubscribe = unsubscribe

	m.wg.Add(1)
	go m.routeEvents(sessions)

	return m, nil
}

// token is the gateway's view of the session. It is nil-safe because the
// gateway is built before the store.
func (m *Manager) token() string {
	if m.session == nil {
		return ""
	}
	return m.session.Token()
}

// routeEvents reacts to session transitions and session file changes.
func (m *Manager) routeEvents(sessions <-chan models.Session) {
	defer m.wg.Done()
	for {
		select {
		case s, ok := <-sessions:
			if !ok {
				return
			}
			m.handleSessionChange(s)

		case event := <-m.storage.Events():
			m.handleStorageEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleSessionChange broadcasts the snapshot and starts or stops the data
// services to match it.
func (m *Manager) handleSessionChange(s models.Session) {
	m.broadcast(SessionChangedEvent{Session: s})

	switch {
	case s.IsAuthenticated:
		m.startData()
	case s.Token == "" && !s.IsLoading:
		m.stopData()
	}
}

func (m *Manager) handleStorageEvent(event storage.Event) {
	switch event.Type {
	case storage.EventChanged:
		if !m.session.Reload(event.Session) {
			return
		}
		logger.Info("session changed by another process")
		if event.Session.Token != "" {
			m.goVerify()
		}

	case storage.EventError:
		m.broadcast(ErrorEvent{
			Service: "storage",
			Error:   event.Error,
		})
	}
}

// handleSessionExpired is the gateway's reaction to a 401.
func (m *Manager) handleSessionExpired() {
	prev := m.session.Session()
	m.session.Expire()
	if prev.Token != "" {
		m.recordSessionEvent(models.SessionEventExpired, prev.User.DisplayName())
	}
	m.broadcast(SessionExpiredEvent{})
}

// goVerify runs CheckAuth in the background, bounded by the manager lifetime.
func (m *Manager) goVerify() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(m.ctx, verifyTimeout)
		defer cancel()
		if err := m.session.CheckAuth(ctx); err != nil && !errors.Is(err, session.ErrSuperseded) {
			logger.Warn("session verification failed", "error", err)
		}
	}()
}

// startData creates the poller and forecast fetcher for a signed-in user.
func (m *Manager) startData() {
	m.mu.Lock()
	if m.poller != nil {
		m.mu.Unlock()
		return
	}
	select {
	case <-m.stopChan:
		m.mu.Unlock()
		return
	default:
	}

	period := m.period
	p := poller.New(m.gateway, poller.Config{
		Clock:       m.clock,
		Recorder:    m.database,
		Period:      period,
		Interval:    m.cfg.RefreshInterval,
		AutoRefresh: m.autoRefresh,
	})
	m.poller = p
	m.predictions = predictions.New(m.gateway)
	states, _ := p.Subscribe()
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for state := range states {
			m.broadcast(UsageUpdatedEvent{State: state})
		}
	}()

	p.Start()
	logger.Debug("data services started", "period", period)
}

// stopData closes the poller and drops the fetcher.
func (m *Manager) stopData() {
	m.mu.Lock()
	p := m.poller
	m.poller = nil
	m.predictions = nil
	m.mu.Unlock()

	if p != nil {
		p.Close()
		m.broadcast(UsageUpdatedEvent{State: poller.State{Period: m.Period()}})
		logger.Debug("data services stopped")
	}
}

func (m *Manager) recordSessionEvent(t models.SessionEventType, user string) {
	event := &models.SessionEvent{Type: t, User: user, Timestamp: m.clock.Now()}
	if err := m.database.InsertSessionEvent(event); err != nil {
		logger.Error("failed to record session event", "type", t, "error", err)
	}
}

// eventBuffer bounds each subscriber's backlog. Events for a subscriber
// that falls behind are dropped.
const eventBuffer = 50

func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			logger.Debug("dropped service event", "event", fmt.Sprintf("%T", event))
		}
	}
}

// Subscribe registers a listener for service events. The channel is closed
// by the returned func or by Close, whichever comes first.
func (m *Manager) Subscribe() (<-chan ServiceEvent, func()) {
	ch := make(chan ServiceEvent, eventBuffer)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if i := slices.Index(m.subscribers, ch); i >= 0 {
			m.subscribers = slices.Delete(m.subscribers, i, i+1)
			close(ch)
		}
	}
}

// Database exposes the local history store.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Gateway returns the configured API client.
func (m *Manager) Gateway() *gateway.Client {
	return m.gateway
}

// Close stops the data services, closes every subscriber and releases the
// session file watcher and database.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		m.cancel()
		close(m.stopChan)
		m.stopData()
		m.unsubscribe()
		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.storage.Close(); err != nil {
			errs = append(errs, err)
		}

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
