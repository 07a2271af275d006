// Package session holds the visitor's authenticated-user state and the
// operations that change it.
package session

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-account-dashboard/auth"
	"github.com/jrsteele09/go-account-dashboard/internal/errors"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/rs/zerolog/log"
)

const (
	loginFailed        = "Login failed"
	registrationFailed = "Registration failed"
	oauthFailed        = "OAuth login failed"
)

// Authenticator is the session transport the store drives
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*users.User, error)
	Register(ctx context.Context, email, password, name string) (*users.User, error)
	LoginWithOAuth(ctx context.Context, provider string) (*users.User, error)
	CurrentUser(ctx context.Context) *users.User
	Refresh(ctx context.Context) *users.User
	Logout(ctx context.Context)
}

var _ Authenticator = (*auth.Service)(nil)

// State is a snapshot of the store. User is nil when nobody is signed in.
type State struct {
	User      *users.User `json:"user"`
	IsLoading bool        `json:"isLoading"`
	Error     string      `json:"error,omitempty"`
}

// Store owns the current State. Operations are not serialised: when two run
// concurrently the one that finishes last determines the final state.
type Store struct {
	auth Authenticator

	mu        sync.Mutex
	state     State
	nextID    uint64
	listeners map[uint64]func(State)
}

// NewStore returns a store in the loading state, as before Bootstrap
func NewStore(a Authenticator) *Store {
	return &Store{
		auth:      a,
		state:     State{IsLoading: true},
		listeners: make(map[uint64]func(State)),
	}
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) User() *users.User {
	return s.Snapshot().User
}

// Subscribe registers fn to be called with the new state after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Bootstrap restores a session silently: refresh first, then the current
// session. It always ends with IsLoading false.
func (s *Store) Bootstrap(ctx context.Context) {
	s.update(func(st *State) { st.IsLoading = true })

	user := s.auth.Refresh(ctx)
	if user == nil {
		user = s.auth.CurrentUser(ctx)
	}

	s.update(func(st *State) {
		st.User = user
		st.IsLoading = false
	})
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	return s.authenticate(loginFailed, func() (*users.User, error) {
		return s.auth.Login(ctx, email, password)
	})
}

func (s *Store) Register(ctx context.Context, email, password, name string) error {
	return s.authenticate(registrationFailed, func() (*users.User, error) {
		return s.auth.Register(ctx, email, password, name)
	})
}

// LoginWithOAuth blocks until the OAuth flow completes or ctx ends
func (s *Store) LoginWithOAuth(ctx context.Context, provider string) error {
	return s.authenticate(oauthFailed, func() (*users.User, error) {
		return s.auth.LoginWithOAuth(ctx, provider)
	})
}

func (s *Store) authenticate(fallback string, call func() (*users.User, error)) error {
	s.update(func(st *State) {
		st.Error = ""
		st.IsLoading = true
	})

	user, err := call()
	if err != nil {
		s.update(func(st *State) {
			st.Error = errorMessage(err, fallback)
			st.IsLoading = false
		})
		return err
	}

	s.update(func(st *State) {
		st.User = user
		st.IsLoading = false
	})
	return nil
}

// Logout clears the local user whatever the backend says
func (s *Store) Logout(ctx context.Context) {
	s.update(func(st *State) { st.IsLoading = true })
	s.auth.Logout(ctx)
	s.update(func(st *State) {
		st.User = nil
		st.IsLoading = false
	})
}

// Refresh replaces the user with the refreshed one, or clears it when the
// backend no longer has a session.
func (s *Store) Refresh(ctx context.Context) {
	s.update(func(st *State) { st.IsLoading = true })

	user := s.auth.Refresh(ctx)
	s.update(func(st *State) {
		st.User = user
		st.Error = ""
		st.IsLoading = false
	})
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.snapshotLocked()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

func (s *Store) snapshotLocked() State {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func errorMessage(err error, fallback string) string {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	log.Debug().Err(err).Msg("Session operation failed")
	return fallback
}
