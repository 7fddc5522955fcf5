// Package session owns the authentication state machine and its persistence.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/j-veylop/usage-dashboard-tui/internal/gateway"
	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/storage"
)

// ErrSuperseded is returned by an attempt whose result was discarded because a
// newer attempt, a logout or an external session change started after it.
var ErrSuperseded = errors.New("superseded by a newer session change")

// API is the subset of the gateway the store calls.
type API interface {
	Login(ctx context.Context, creds models.Credentials) (*gateway.AuthResult, error)
	Register(ctx context.Context, reg models.Registration) (*gateway.AuthResult, error)
	CurrentUser(ctx context.Context) (models.UserProfile, error)
}

// Store holds the current Session. All transitions go through its methods;
// the latest started attempt wins.
type Store struct {
	api         API
	persister   storage.Persister
	subscribers map[int]chan models.Session
	session     models.Session
	seq         uint64
	nextSubID   int
	mu          sync.Mutex
}

// New creates a store hydrated from persister. The loaded token is not
// trusted until CheckAuth confirms it.
func New(api API, persister storage.Persister) *Store {
	s := &Store{
		api:         api,
		persister:   persister,
		subscribers: make(map[int]chan models.Session),
	}

	persisted, err := persister.Load()
	if err != nil {
		logger.Warn("failed to load persisted session, starting signed out", "error", err)
		return s
	}
	s.session.Token = persisted.Token
	s.session.User = persisted.User
	return s
}

// Session returns a snapshot of the current session.
func (s *Store) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Token returns the held bearer token, verified or not. It satisfies
// gateway.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token
}

// Login authenticates with credentials. On success the session is
// authenticated and persisted; on failure only the loading flag is reset.
func (s *Store) Login(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	seq := s.begin()
	res, err := s.api.Login(ctx, creds)
	return s.finishAuth(seq, res, err)
}

// Register creates an account and signs in with it. The password policy is
// checked before any request is sent.
func (s *Store) Register(ctx context.Context, reg models.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	seq := s.begin()
	res, err := s.api.Register(ctx, reg)
	return s.finishAuth(seq, res, err)
}

// CheckAuth verifies the held token with the server. With no token it
// settles on anonymous without a request. Any failure to verify, including an
// unreachable server, clears the session exactly as Logout would.
func (s *Store) CheckAuth(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.session.Token == "" {
		s.session.IsAuthenticated = false
		s.session.IsLoading = false
		s.publishLocked()
		s.mu.Unlock()
		return nil
	}
	s.session.IsLoading = true
	s.publishLocked()
	s.mu.Unlock()

	user, err := s.api.CurrentUser(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrSuperseded
	}
	s.session.IsLoading = false

	if err != nil {
		logger.Warn("session verification failed", "error", err)
		s.clearLocked()
		return err
	}
	if s.session.Token == "" {
		// Expired while the request was in flight.
		s.publishLocked()
		return gateway.ErrAuthExpired
	}

	s.session.User = user
	s.session.IsAuthenticated = true
	s.persistLocked()
	s.publishLocked()
	return nil
}

// Logout clears the session and its persisted copy. It never fails and
// supersedes any in-flight attempt.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.clearLocked()
}

// Expire is the forced-logout path used when the server answers 401. It
// clears credentials but leaves in-flight attempts to report their own
// outcome, since a rejected login also answers 401.
func (s *Store) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Token == "" && s.session.User == nil && !s.session.IsAuthenticated {
		return
	}
	logger.Info("session expired")
	loading := s.session.IsLoading
	s.clearLocked()
	s.session.IsLoading = loading
	s.publishLocked()
}

// Reload adopts a session written by another process. A changed token is
// held unverified; callers should follow up with CheckAuth.
func (s *Store) Reload(p models.PersistedSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Token == s.session.Token {
		return false
	}
	s.seq++
	s.session = models.Session{Token: p.Token, User: p.User.Clone()}
	s.publishLocked()
	return true
}

// Subscribe returns a channel receiving a snapshot after every transition and
// a function that ends the subscription. A slow subscriber only misses
// intermediate snapshots, never the latest one.
func (s *Store) Subscribe() (<-chan models.Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan models.Session, 1)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.session.IsLoading = true
	s.publishLocked()
	return s.seq
}

func (s *Store) finishAuth(seq uint64, res *gateway.AuthResult, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrSuperseded
	}
	s.session.IsLoading = false

	if err == nil && (res == nil || res.Token == "") {
		err = &gateway.Error{Kind: gateway.KindServer, Message: "Invalid response from server: missing token"}
	}
	if err != nil {
		s.publishLocked()
		return err
	}

	s.session.Token = res.Token
	s.session.User = res.User
	s.session.IsAuthenticated = true
	s.persistLocked()
	s.publishLocked()
	logger.Info("signed in", "user", res.User.DisplayName())
	return nil
}

// clearLocked resets to anonymous and persists the empty pair.
func (s *Store) clearLocked() {
	s.session = models.Session{}
	if err := s.persister.Clear(); err != nil {
		logger.Error("failed to clear persisted session", "error", err)
	}
	s.publishLocked()
}

func (s *Store) persistLocked() {
	if err := s.persister.Save(s.session.Persisted()); err != nil {
		logger.Error("failed to persist session", "error", err)
	}
}

func (s *Store) publishLocked() {
	snapshot := s.session.Clone()
	for _, ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Replace the stale snapshot.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
