package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-account-dashboard/auth"
	dasherrors "github.com/jrsteele09/go-account-dashboard/internal/errors"
	"github.com/jrsteele09/go-account-dashboard/session"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/jrsteele09/go-account-dashboard/window"
	"github.com/stretchr/testify/require"
)

var (
	ada   = users.User{ID: "user-1", Email: "ada@example.com", Name: "Ada", CreatedAt: "2025-01-01T00:00:00Z"}
	grace = users.User{ID: "user-2", Email: "grace@example.com", Name: "Grace", CreatedAt: "2025-01-01T00:00:00Z"}
)

// fakeAuth is an in-memory Authenticator; nil funcs behave like "no session"
type fakeAuth struct {
	mu    sync.Mutex
	calls []string

	login       func(email, password string) (*users.User, error)
	register    func(email, password, name string) (*users.User, error)
	oauth       func(ctx context.Context, provider string) (*users.User, error)
	currentUser func() *users.User
	refresh     func() *users.User
}

var _ session.Authenticator = (*fakeAuth)(nil)

func (f *fakeAuth) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAuth) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*users.User, error) {
	f.record("login")
	return f.login(email, password)
}

func (f *fakeAuth) Register(_ context.Context, email, password, name string) (*users.User, error) {
	f.record("register")
	return f.register(email, password, name)
}

func (f *fakeAuth) LoginWithOAuth(ctx context.Context, provider string) (*users.User, error) {
	f.record("oauth")
	return f.oauth(ctx, provider)
}

func (f *fakeAuth) CurrentUser(context.Context) *users.User {
	f.record("me")
	if f.currentUser == nil {
		return nil
	}
	return f.currentUser()
}

func (f *fakeAuth) Refresh(context.Context) *users.User {
	f.record("refresh")
	if f.refresh == nil {
		return nil
	}
	return f.refresh()
}

func (f *fakeAuth) Logout(context.Context) {
	f.record("logout")
}

func userPtr(u users.User) *users.User {
	return &u
}

func TestStore_NewStoreIsLoading(t *testing.T) {
	s := session.NewStore(&fakeAuth{})
	require.Equal(t, session.State{IsLoading: true}, s.Snapshot())
}

func TestStore_Bootstrap(t *testing.T) {
	t.Run("refresh wins and current user is not asked", func(t *testing.T) {
		fa := &fakeAuth{
			refresh:     func() *users.User { return userPtr(ada) },
			currentUser: func() *users.User { return userPtr(grace) },
		}
		s := session.NewStore(fa)
		s.Bootstrap(context.Background())

		st := s.Snapshot()
		require.False(t, st.IsLoading)
		require.Equal(t, ada, *st.User)
		require.Equal(t, []string{"refresh"}, fa.Calls())
	})

	t.Run("falls back to current user", func(t *testing.T) {
		fa := &fakeAuth{currentUser: func() *users.User { return userPtr(grace) }}
		s := session.NewStore(fa)
		s.Bootstrap(context.Background())

		require.Equal(t, grace, *s.User())
		require.Equal(t, []string{"refresh", "me"}, fa.Calls())
	})

	t.Run("no session", func(t *testing.T) {
		fa := &fakeAuth{}
		s := session.NewStore(fa)
		s.Bootstrap(context.Background())

		require.Equal(t, session.State{User: nil, IsLoading: false}, s.Snapshot())
	})

	t.Run("loading is cleared exactly once", func(t *testing.T) {
		s := session.NewStore(&fakeAuth{})
		var transitions int
		s.Subscribe(func(st session.State) {
			if !st.IsLoading {
				transitions++
			}
		})
		s.Bootstrap(context.Background())
		require.Equal(t, 1, transitions)
	})
}

func TestStore_Login(t *testing.T) {
	t.Run("success replaces the user", func(t *testing.T) {
		fa := &fakeAuth{login: func(email, password string) (*users.User, error) {
			return userPtr(ada), nil
		}}
		s := session.NewStore(fa)

		var seen []session.State
		s.Subscribe(func(st session.State) { seen = append(seen, st) })

		require.NoError(t, s.Login(context.Background(), ada.Email, "pw"))

		st := s.Snapshot()
		require.Equal(t, ada, *st.User)
		require.False(t, st.IsLoading)
		require.Empty(t, st.Error)
		require.True(t, seen[0].IsLoading)
		require.False(t, seen[len(seen)-1].IsLoading)
	})

	t.Run("auth error is recorded and returned", func(t *testing.T) {
		fa := &fakeAuth{login: func(email, password string) (*users.User, error) {
			return nil, &auth.AuthError{Status: 401, Message: "Invalid email or password"}
		}}
		s := session.NewStore(fa)

		err := s.Login(context.Background(), ada.Email, "bad")
		var authErr *auth.AuthError
		require.ErrorAs(t, err, &authErr)

		st := s.Snapshot()
		require.Equal(t, "Invalid email or password", st.Error)
		require.False(t, st.IsLoading)
		require.Nil(t, st.User)
	})

	t.Run("other errors use the fallback message", func(t *testing.T) {
		fa := &fakeAuth{login: func(email, password string) (*users.User, error) {
			return nil, errors.New("dial tcp: connection refused")
		}}
		s := session.NewStore(fa)

		require.Error(t, s.Login(context.Background(), ada.Email, "pw"))
		require.Equal(t, "Login failed", s.Snapshot().Error)
	})

	t.Run("a later success clears the previous error", func(t *testing.T) {
		fail := true
		fa := &fakeAuth{login: func(email, password string) (*users.User, error) {
			if fail {
				return nil, &auth.AuthError{Message: "nope"}
			}
			return userPtr(ada), nil
		}}
		s := session.NewStore(fa)

		require.Error(t, s.Login(context.Background(), ada.Email, "pw"))
		fail = false
		require.NoError(t, s.Login(context.Background(), ada.Email, "pw"))
		require.Empty(t, s.Snapshot().Error)
	})
}

func TestStore_Register(t *testing.T) {
	fa := &fakeAuth{register: func(email, password, name string) (*users.User, error) {
		if name == "" {
			return nil, errors.New("boom")
		}
		return &users.User{ID: "new", Email: email, Name: name}, nil
	}}
	s := session.NewStore(fa)

	require.Error(t, s.Register(context.Background(), "x@example.com", "pw", ""))
	require.Equal(t, "Registration failed", s.Snapshot().Error)

	require.NoError(t, s.Register(context.Background(), "x@example.com", "pw", "Xavier"))
	require.Equal(t, "Xavier", s.User().Name)
}

func TestStore_LoginWithOAuth(t *testing.T) {
	t.Run("fallback message on cancellation", func(t *testing.T) {
		fa := &fakeAuth{oauth: func(ctx context.Context, provider string) (*users.User, error) {
			<-ctx.Done()
			return nil, dasherrors.ErrOAuthCancelled
		}}
		s := session.NewStore(fa)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := s.LoginWithOAuth(ctx, "google")
		require.ErrorIs(t, err, dasherrors.ErrOAuthCancelled)

		st := s.Snapshot()
		require.Equal(t, "OAuth login failed", st.Error)
		require.False(t, st.IsLoading)
	})

	t.Run("completes through the window message channel", func(t *testing.T) {
		backend := httptest.NewServer(http.NotFoundHandler())
		defer backend.Close()

		rec := window.NewRecorder()
		win := window.New("http://app.test", rec, nil)
		svc := auth.NewService(backend.URL, backend.Client(), win)
		s := session.NewStore(svc)

		go func() {
			<-rec.Navigated()
			win.Messages().Post("http://app.test", window.Message{Type: window.TypeOAuthSuccess, User: userPtr(grace)})
		}()

		require.NoError(t, s.LoginWithOAuth(context.Background(), "github"))
		require.Equal(t, grace, *s.User())
		require.Equal(t, backend.URL+"/oauth2/authorization/github", rec.Target())
	})
}

func TestStore_Logout(t *testing.T) {
	fa := &fakeAuth{login: func(email, password string) (*users.User, error) { return userPtr(ada), nil }}
	s := session.NewStore(fa)
	require.NoError(t, s.Login(context.Background(), ada.Email, "pw"))

	s.Logout(context.Background())

	st := s.Snapshot()
	require.Nil(t, st.User)
	require.False(t, st.IsLoading)
	require.Contains(t, fa.Calls(), "logout")
}

func TestStore_LogoutClearsUserWhenBackendFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+auth.RouteLogin, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"user-1","email":"ada@example.com","name":"Ada","createdAt":"x"},"token":"t"}`))
	})
	mux.HandleFunc("POST "+auth.RouteLogout, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	s := session.NewStore(auth.NewService(backend.URL, backend.Client(), nil))
	require.NoError(t, s.Login(context.Background(), "ada@example.com", "pw"))
	require.NotNil(t, s.User())

	s.Logout(context.Background())
	require.Nil(t, s.User())
}

func TestStore_BootstrapAgainstFailingBackend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+auth.RouteRefresh, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("GET "+auth.RouteMe, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	s := session.NewStore(auth.NewService(backend.URL, backend.Client(), nil))
	s.Bootstrap(context.Background())

	require.Equal(t, session.State{User: nil, IsLoading: false}, s.Snapshot())
}

func TestStore_Refresh(t *testing.T) {
	t.Run("success clears a previous error", func(t *testing.T) {
		fa := &fakeAuth{
			login:   func(string, string) (*users.User, error) { return nil, &auth.AuthError{Message: "bad"} },
			refresh: func() *users.User { return userPtr(ada) },
		}
		s := session.NewStore(fa)
		require.Error(t, s.Login(context.Background(), "a", "b"))
		require.Equal(t, "bad", s.Snapshot().Error)

		s.Refresh(context.Background())
		st := s.Snapshot()
		require.Empty(t, st.Error)
		require.Equal(t, ada, *st.User)
	})

	t.Run("no refreshed user clears the session without an error", func(t *testing.T) {
		fa := &fakeAuth{
			login: func(string, string) (*users.User, error) { return userPtr(ada), nil },
			register: func(string, string, string) (*users.User, error) {
				return nil, &auth.AuthError{Message: "Email already registered"}
			},
		}
		s := session.NewStore(fa)
		require.NoError(t, s.Login(context.Background(), "a", "b"))
		require.Error(t, s.Register(context.Background(), "a", "b", "c"))
		require.Equal(t, "Email already registered", s.Snapshot().Error)

		s.Refresh(context.Background())

		st := s.Snapshot()
		require.Nil(t, st.User)
		require.Empty(t, st.Error)
		require.False(t, st.IsLoading)
	})
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	fa := &fakeAuth{login: func(string, string) (*users.User, error) { return userPtr(ada), nil }}
	s := session.NewStore(fa)
	require.NoError(t, s.Login(context.Background(), "a", "b"))

	st := s.Snapshot()
	st.User.Name = "changed"
	require.Equal(t, "Ada", s.User().Name)
}

func TestStore_Unsubscribe(t *testing.T) {
	s := session.NewStore(&fakeAuth{})
	calls := 0
	unsubscribe := s.Subscribe(func(session.State) { calls++ })
	s.Bootstrap(context.Background())
	require.Positive(t, calls)

	before := calls
	unsubscribe()
	s.Bootstrap(context.Background())
	require.Equal(t, before, calls)
}
