package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/usage-dashboard-tui/internal/notify"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
)

func TestTickCmd(t *testing.T) {
	msg := tickCmd(time.Millisecond)()
	assert.IsType(t, TickMsg{}, msg)
}

func TestToast_Durations(t *testing.T) {
	tests := []struct {
		kind NotificationType
		want time.Duration
	}{
		{NotificationSuccess, 5 * time.Second},
		{NotificationWarning, 5 * time.Second},
		{NotificationError, 10 * time.Second},
		{NotificationInfo, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			msg, ok := Toast(tt.kind, "saved")().(AddNotificationMsg)
			require.True(t, ok)
			assert.Equal(t, tt.kind, msg.Type)
			assert.Equal(t, "saved", msg.Message)
			assert.Equal(t, tt.want, msg.Duration)
		})
	}
}

func TestNotificationCmd_Levels(t *testing.T) {
	tests := []struct {
		level notify.Level
		want  NotificationType
	}{
		{notify.LevelSuccess, NotificationSuccess},
		{notify.LevelWarning, NotificationWarning},
		{notify.LevelError, NotificationError},
		{notify.LevelInfo, NotificationInfo},
		{notify.Level(99), NotificationInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			msg := notificationCmd(notify.Notification{Level: tt.level, Message: "m"})()
			assert.Equal(t, tt.want, msg.(AddNotificationMsg).Type)
		})
	}
}

func TestClearNotificationCmd(t *testing.T) {
	msg := clearNotificationCmd("n-1", time.Millisecond)()
	assert.Equal(t, RemoveNotificationMsg{ID: "n-1"}, msg)
}

func TestWaitForServiceEventCmd(t *testing.T) {
	ch := make(chan services.ServiceEvent, 1)
	ch <- services.SessionExpiredEvent{}

	msg, ok := waitForServiceEventCmd(ch)().(ServiceEventMsg)
	require.True(t, ok)
	assert.IsType(t, services.SessionExpiredEvent{}, msg.Event)

	close(ch)
	assert.Nil(t, waitForServiceEventCmd(ch)(), "closed channel yields nil")
}
