// Package models defines data structures and domain types.
package models

import "fmt"

// SessionState is the derived authentication state of a Session.
type SessionState int

const (
	// SessionAnonymous means no verified credentials are held.
	SessionAnonymous SessionState = iota
	// SessionVerifying means a login, registration or verification is in flight.
	SessionVerifying
	// SessionAuthenticated means the token was accepted by the last verification.
	SessionAuthenticated
)

// String returns the display name for a session state.
func (s SessionState) String() string {
	switch s {
	case SessionAnonymous:
		return "Anonymous"
	case SessionVerifying:
		return "Verifying"
	case SessionAuthenticated:
		return "Authenticated"
	default:
		return "Unknown"
	}
}

// UserProfile is the user object returned by the server. Its fields are not
// interpreted beyond display helpers.
type UserProfile map[string]any

// Field returns a field rendered as a string, or "" when absent.
func (u UserProfile) Field(name string) string {
	if u == nil {
		return ""
	}
	v, ok := u[name]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// DisplayName returns the best human-readable identifier for the user.
func (u UserProfile) DisplayName() string {
	for _, key := range []string{"name", "email", "id"} {
		if v := u.Field(key); v != "" {
			return v
		}
	}
	return "unknown user"
}

// Clone returns a shallow copy of the profile.
func (u UserProfile) Clone() UserProfile {
	if u == nil {
		return nil
	}
	c := make(UserProfile, len(u))
	for k, v := range u {
		c[k] = v
	}
	return c
}

// PersistedSession is the subset of a Session that survives restarts.
type PersistedSession struct {
	Token string      `json:"token,omitempty"`
	User  UserProfile `json:"user,omitempty"`
}

// IsEmpty reports whether nothing worth persisting is held.
func (p PersistedSession) IsEmpty() bool {
	return p.Token == "" && len(p.User) == 0
}

// Session is the client-held record of authentication status and identity.
// IsAuthenticated implies Token is set and was accepted by the server; a Token
// alone is not trusted until verified.
type Session struct {
	User            UserProfile
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// State derives the state machine position from the session flags.
func (s Session) State() SessionState {
	switch {
	case s.IsLoading:
		return SessionVerifying
	case s.IsAuthenticated:
		return SessionAuthenticated
	default:
		return SessionAnonymous
	}
}

// HasToken reports whether a token is held, verified or not.
func (s Session) HasToken() bool {
	return s.Token != ""
}

// Persisted returns the persistable subset of the session.
func (s Session) Persisted() PersistedSession {
	return PersistedSession{Token: s.Token, User: s.User.Clone()}
}

// Clone returns a copy safe to hand to other goroutines.
func (s Session) Clone() Session {
	s.User = s.User.Clone()
	return s
}
