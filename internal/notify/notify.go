// Package notify fans user-visible messages out to the TUI, the terminal and
// the desktop.
package notify

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/google/uuid"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
)

// Level is the severity of a notification.
type Level int

const (
	// LevelInfo is an informational message.
	LevelInfo Level = iota
	// LevelSuccess confirms a completed action.
	LevelSuccess
	// LevelWarning needs attention but nothing failed.
	LevelWarning
	// LevelError reports a failure.
	LevelError
)

// String returns the string representation of a Level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a single user-visible message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Title     string
	Message   string
	Level     Level
}

// Sink receives notifications.
type Sink interface {
	Deliver(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notification)

// Deliver implements Sink.
func (f SinkFunc) Deliver(n Notification) { f(n) }

// Dispatcher stamps notifications and hands them to every sink.
type Dispatcher struct {
	sinks []Sink
	mu    sync.RWMutex
}

// New creates a dispatcher.
func New(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// AddSink registers another sink.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Notify delivers a message and returns it.
func (d *Dispatcher) Notify(level Level, title, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	d.mu.RLock()
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()

	for _, s := range sinks {
		s.Deliver(n)
	}
	return n
}

// NotifyError reports a failure. It satisfies gateway.Notifier.
func (d *Dispatcher) NotifyError(message string) {
	d.Notify(LevelError, "", message)
}

// NotifySuccess confirms a completed action.
func (d *Dispatcher) NotifySuccess(message string) {
	d.Notify(LevelSuccess, "", message)
}

// Desktop shows notifications at or above MinLevel as desktop popups.
type Desktop struct {
	send     func(title, message string) error
	AppName  string
	MinLevel Level
}

// NewDesktop creates a desktop sink using the system notifier.
func NewDesktop(appName string, minLevel Level) *Desktop {
	return &Desktop{AppName: appName, MinLevel: minLevel, send: systemNotify}
}

// Deliver implements Sink.
func (d *Desktop) Deliver(n Notification) {
	if n.Level < d.MinLevel {
		return
	}
	title := n.Title
	if title == "" {
		title = d.AppName
	}
	if err := d.send(title, n.Message); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

func systemNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Memory keeps delivered notifications for inspection.
type Memory struct {
	items []Notification
	mu    sync.Mutex
}

// Deliver implements Sink.
func (m *Memory) Deliver(n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
}

// All returns the delivered notifications in order.
func (m *Memory) All() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.items...)
}
