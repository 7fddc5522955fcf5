package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/notify"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
)

// DefaultTickInterval drives the "updated Xs ago" footer and toast expiry.
const DefaultTickInterval = 2 * time.Second

// commandTimeout bounds every manager call issued from the UI.
const commandTimeout = 30 * time.Second

// toastDurations is how long each kind of toast stays on screen. Errors
// linger so the user can read the server's message.
var toastDurations = map[NotificationType]time.Duration{
	NotificationSuccess: 5 * time.Second,
	NotificationWarning: 5 * time.Second,
	NotificationError:   10 * time.Second,
	NotificationInfo:    3 * time.Second,
}

// toastLevels maps service notification levels onto toast kinds.
var toastLevels = map[notify.Level]NotificationType{
	notify.LevelSuccess: NotificationSuccess,
	notify.LevelWarning: NotificationWarning,
	notify.LevelError:   NotificationError,
	notify.LevelInfo:    NotificationInfo,
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// managerCmd runs fn against the manager with a bounded context.
func managerCmd(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return fn(ctx)
	}
}

// checkAuthCmd restores the persisted session once at startup.
func checkAuthCmd(mgr *services.Manager) tea.Cmd {
	return managerCmd(func(ctx context.Context) tea.Msg {
		return CheckAuthResultMsg{Error: mgr.CheckAuth(ctx)}
	})
}

// logoutCmd signs out. The session change arrives as a service event.
func logoutCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Logout()
		return nil
	}
}

func loadPredictionsCmd(mgr *services.Manager) tea.Cmd {
	return managerCmd(func(ctx context.Context) tea.Msg {
		state, err := mgr.LoadPredictions(ctx)
		return PredictionsLoadedMsg{State: state, Error: err}
	})
}

// refetchCmd starts a manual poll cycle. The result arrives as a service event.
func refetchCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Refetch()
		return nil
	}
}

func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	// The manager closes the channel on shutdown.
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd yields the next service event, or nil once the
// manager has closed the channel.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// Toast queues a toast of the given kind for its standard duration.
func Toast(kind NotificationType, message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     kind,
			Message:  message,
			Duration: toastDurations[kind],
		}
	}
}

func errorToastCmd(message string) tea.Cmd {
	return Toast(NotificationError, message)
}

// notificationCmd turns a service notification into a toast. Unknown levels
// are shown as info.
func notificationCmd(n notify.Notification) tea.Cmd {
	kind, ok := toastLevels[n.Level]
	if !ok {
		kind = NotificationInfo
	}
	return Toast(kind, n.Message)
}
