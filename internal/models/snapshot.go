package models

import "time"

// StatsSnapshot is one locally recorded poll result, kept to chart how
// aggregate usage moved between refreshes.
type StatsSnapshot struct {
	RecordedAt    time.Time
	Period        Period
	ID            int64
	TotalCost     float64
	TotalTokens   int64
	TotalRequests int64
	TotalErrors   int64
	ErrorRate     float64
	RecordCount   int
}

// CachedUsage is the last successful fetch for a period, used to show
// something immediately on startup.
type CachedUsage struct {
	FetchedAt time.Time
	Stats     *StatsSummary
	Period    Period
	Records   []UsageRecord
}

// SessionEventType names a recorded session transition.
type SessionEventType string

const (
	// SessionEventLogin records a successful login or registration.
	SessionEventLogin SessionEventType = "login"
	// SessionEventLogout records a user-initiated logout.
	SessionEventLogout SessionEventType = "logout"
	// SessionEventExpired records a forced logout after a 401.
	SessionEventExpired SessionEventType = "expired"
)

// SessionEvent is a row of the local session audit log.
type SessionEvent struct {
	Timestamp time.Time
	Type      SessionEventType
	User      string
	ID        int64
}
