package app

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// NotificationType is the kind of a toast.
type NotificationType int

const (
	NotificationSuccess NotificationType = iota
	NotificationError
	NotificationWarning
	NotificationInfo
	// NotificationLoading is the single spinner toast shown while requests
	// are in flight.
	NotificationLoading
)

var notificationTypeNames = [...]string{"success", "error", "warning", "info", "loading"}

func (n NotificationType) String() string {
	if n < 0 || int(n) >= len(notificationTypeNames) {
		return "unknown"
	}
	return notificationTypeNames[n]
}

// LoadingNotificationID is the fixed ID of the loading toast.
const LoadingNotificationID = "__loading__"

const maxNotifications = 10

// Notification is one toast. A zero Duration never expires.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired reports whether the toast has outlived its Duration.
func (n *Notification) IsExpired() bool {
	return n.Duration > 0 && time.Since(n.CreatedAt) > n.Duration
}

// toastQueue is the on-screen toast list, oldest first. State guards it.
type toastQueue []Notification

// push appends n unless an identical toast is showing, in which case that
// one's timer restarts. The oldest toasts are dropped past maxNotifications.
func (q *toastQueue) push(n Notification) string {
	for i, existing := range *q {
		if existing.Message == n.Message && existing.Type == n.Type {
			(*q)[i].CreatedAt = n.CreatedAt
			return existing.ID
		}
	}
	*q = append(*q, n)
	if over := len(*q) - maxNotifications; over > 0 {
		*q = (*q)[over:]
	}
	return n.ID
}

func (q *toastQueue) remove(id string) {
	*q = slices.DeleteFunc(*q, func(n Notification) bool { return n.ID == id })
}

func (q *toastQueue) prune() {
	*q = slices.DeleteFunc(*q, func(n Notification) bool { return n.IsExpired() })
}

// AddNotification queues a toast and returns its ID.
func (s *State) AddNotification(kind NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toasts.push(Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})
}

func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts.remove(id)
}

func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts.prune()
}

func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = nil
}

// GetNotifications returns a copy of the unexpired toasts.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make([]Notification, 0, len(s.toasts))
	for _, n := range s.toasts {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification shows message in the loading toast, creating it if
// needed.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.IndexFunc(s.toasts, func(n Notification) bool { return n.ID == LoadingNotificationID }); i >= 0 {
		s.toasts[i].Message = message
		return
	}
	s.toasts = append(s.toasts, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
