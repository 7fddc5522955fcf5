package app

import (
	"sync"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/poller"
	"github.com/j-veylop/usage-dashboard-tui/internal/predictions"
)

// LoadingState holds one flag per resource that can be in flight. Initial
// covers the startup session check.
type LoadingState struct {
	Initial     bool
	Usage       bool
	Predictions bool
	Export      bool
}

// flag maps a resource name onto its field, or nil for unknown names.
func (l *LoadingState) flag(resource string) *bool {
	switch resource {
	case "initial":
		return &l.Initial
	case "usage":
		return &l.Usage
	case "predictions":
		return &l.Predictions
	case "export":
		return &l.Export
	}
	return nil
}

func (l LoadingState) any() bool {
	return l.Initial || l.Usage || l.Predictions || l.Export
}

// State is what the root model shares with the tabs. The tea loop writes it;
// tab commands may read it from other goroutines.
type State struct {
	mu sync.RWMutex

	Session     models.Session
	Usage       poller.State
	Predictions predictions.State
	Loading     LoadingState

	toasts toastQueue
}

// NewState returns a signed-out state waiting on the session check.
func NewState() *State {
	return &State{Loading: LoadingState{Initial: true}}
}

// SetLoading sets the flag for resource. Unknown resources are ignored.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.Loading.flag(resource); f != nil {
		*f = loading
	}
}

// IsLoading reports the flag for resource.
func (s *State) IsLoading(resource string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.Loading.flag(resource)
	return f != nil && *f
}

// AnyLoading reports whether anything is in flight.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.any()
}

// IsInitialLoading reports whether the startup session check is running.
func (s *State) IsInitialLoading() bool {
	return s.IsLoading("initial")
}

func (s *State) SetSession(session models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Session = session
}

func (s *State) GetSession() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Session
}

// IsAuthenticated decides between the tabs and the sign-in screen.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Session.IsAuthenticated
}

// SetUsage stores a poller snapshot and mirrors its loading flag.
func (s *State) SetUsage(usage poller.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Usage = usage
	s.Loading.Usage = usage.Loading
}

func (s *State) GetUsage() poller.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Usage
}

// SetPredictions stores the forecast state and mirrors its loading flag.
func (s *State) SetPredictions(p predictions.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Predictions = p
	s.Loading.Predictions = p.Loading
}

func (s *State) GetPredictions() predictions.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Predictions
}

// Reset drops everything tied to the signed-in user. The selected period
// and auto-refresh preference survive.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Usage = poller.State{Period: s.Usage.Period, AutoRefresh: s.Usage.AutoRefresh}
	s.Predictions = predictions.State{}
	s.Loading.Usage = false
	s.Loading.Predictions = false
}
