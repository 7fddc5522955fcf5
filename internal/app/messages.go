package app

import (
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/poller"
	"github.com/j-veylop/usage-dashboard-tui/internal/predictions"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
)

// Session messages.
type (
	// CheckAuthResultMsg reports the startup restore of a persisted session.
	CheckAuthResultMsg struct {
		Error error
	}

	// AuthResultMsg reports a finished login or registration attempt.
	AuthResultMsg struct {
		Error error
	}

	// LogoutMsg asks the model to sign out.
	LogoutMsg struct{}

	// SessionChangedMsg fans a session snapshot out to the tabs.
	SessionChangedMsg struct {
		Session models.Session
	}
)

// Data messages.
type (
	// UsageUpdatedMsg fans a poller snapshot out to the tabs.
	UsageUpdatedMsg struct {
		State poller.State
	}

	PredictionsLoadedMsg struct {
		Error error
		State predictions.State
	}

	// PeriodChangedMsg selects a different usage window.
	PeriodChangedMsg struct {
		Period models.Period
	}

	// RefreshMsg asks for Resource to be fetched again: "all", "usage",
	// "predictions" or "history".
	RefreshMsg struct {
		Resource string
	}

	// StartLoadingMsg and StopLoadingMsg bracket a request for Resource.
	StartLoadingMsg struct {
		Resource string
	}
	StopLoadingMsg struct {
		Resource string
	}

	ExportResultMsg struct {
		Error error
		Path  string
	}

	// ErrorMsg surfaces a failure from a tab. Context prefixes the toast.
	ErrorMsg struct {
		Error   error
		Context string
	}
)

// Service plumbing.
type (
	SubscriptionEventMsg struct {
		Channel <-chan services.ServiceEvent
	}

	ServiceEventMsg struct {
		Event services.ServiceEvent
	}
)

// Toasts.
type (
	AddNotificationMsg struct {
		Message  string
		Type     NotificationType
		Duration time.Duration
	}

	RemoveNotificationMsg struct {
		ID string
	}

	ClearNotificationsMsg        struct{}
	ClearExpiredNotificationsMsg struct{}
)

// UI control.
type (
	// TickMsg drives relative timestamps and toast expiry.
	TickMsg struct {
		Time time.Time
	}

	TabSwitchMsg struct {
		Tab TabID
	}

	ToggleHelpMsg struct{}
	QuitMsg       struct{}
)
