package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-account-dashboard/auth"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/jrsteele09/go-account-dashboard/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "Secret123"
	testOrigin   = "http://app.test"
)

var testUser = users.User{
	ID:        "user-1",
	Email:     testEmail,
	Name:      "Ada Lovelace",
	CreatedAt: "2025-01-02T03:04:05Z",
}

type testFixture struct {
	backend  *httptest.Server
	mux      *http.ServeMux
	service  *auth.Service
	recorder *window.Recorder
	window   *window.Window
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	mux := http.NewServeMux()
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	client, err := auth.NewHTTPClient(5*time.Second, nil)
	require.NoError(t, err)

	rec := window.NewRecorder()
	win := window.New(testOrigin, rec, window.NewMessages())

	return &testFixture{
		backend:  backend,
		mux:      mux,
		service:  auth.NewService(backend.URL+"/", client, win),
		recorder: rec,
		window:   win,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestService_Login(t *testing.T) {
	t.Run("success returns the user and stores the session cookie", func(t *testing.T) {
		f := setupTestFixture(t)

		f.mux.HandleFunc("POST "+auth.RouteLogin, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req users.LoginRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, testEmail, req.Email)
			assert.Equal(t, testPassword, req.Password)

			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "opaque", Path: "/"})
			writeJSON(w, http.StatusOK, users.AuthResponse{User: testUser, Token: "opaque"})
		})

		var sawCookie atomic.Bool
		f.mux.HandleFunc("GET "+auth.RouteMe, func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie("access_token")
			sawCookie.Store(err == nil && c.Value == "opaque")
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, testUser)
		})

		user, err := f.service.Login(context.Background(), testEmail, testPassword)
		require.NoError(t, err)
		require.Equal(t, testUser, *user)

		me := f.service.CurrentUser(context.Background())
		require.NotNil(t, me)
		require.True(t, sawCookie.Load())
	})

	cases := []struct {
		name    string
		status  int
		body    string
		ctype   string
		message string
	}{
		{name: "json message", status: http.StatusUnauthorized, body: `{"message":"Invalid email or password"}`, ctype: "application/json", message: "Invalid email or password"},
		{name: "json without message", status: http.StatusBadRequest, body: `{"error":"bad_request"}`, ctype: "application/json", message: "Login failed"},
		{name: "html error page", status: http.StatusInternalServerError, body: `<html><body>Oops</body></html>`, ctype: "text/html", message: "Login failed"},
		{name: "empty body", status: http.StatusForbidden, body: ``, ctype: "text/plain", message: "Login failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.mux.HandleFunc("POST "+auth.RouteLogin, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.ctype)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			user, err := f.service.Login(context.Background(), testEmail, "wrong")
			require.Nil(t, user)

			var authErr *auth.AuthError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, tc.message, authErr.Message)
			require.Equal(t, tc.status, authErr.Status)
		})
	}

	t.Run("unreachable backend is a transport error", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.Close()

		_, err := f.service.Login(context.Background(), testEmail, testPassword)
		require.Error(t, err)

		var authErr *auth.AuthError
		require.NotErrorAs(t, err, &authErr)
	})
}

func TestService_Register(t *testing.T) {
	t.Run("posts to signup", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST "+auth.RouteSignup, func(w http.ResponseWriter, r *http.Request) {
			var req users.RegisterRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Ada Lovelace", req.Name)
			writeJSON(w, http.StatusCreated, users.AuthResponse{User: testUser, Token: "t"})
		})

		user, err := f.service.Register(context.Background(), testEmail, testPassword, "Ada Lovelace")
		require.NoError(t, err)
		require.Equal(t, testUser.ID, user.ID)
	})

	t.Run("fallback message", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST "+auth.RouteSignup, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("<h1>conflict</h1>"))
		})

		_, err := f.service.Register(context.Background(), testEmail, testPassword, "Ada")
		require.EqualError(t, err, "Registration failed")
	})

	t.Run("backend message", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST "+auth.RouteSignup, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already registered"})
		})

		_, err := f.service.Register(context.Background(), testEmail, testPassword, "Ada")
		require.EqualError(t, err, "Email already registered")
	})
}

func TestService_CurrentUser(t *testing.T) {
	t.Run("redirect is not followed and means no session", func(t *testing.T) {
		f := setupTestFixture(t)
		var followed atomic.Bool
		f.mux.HandleFunc("GET "+auth.RouteMe, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/login", http.StatusFound)
		})
		f.mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
			followed.Store(true)
			writeJSON(w, http.StatusOK, testUser)
		})

		require.Nil(t, f.service.CurrentUser(context.Background()))
		require.False(t, followed.Load())
	})

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := setupTestFixture(t)
			f.mux.HandleFunc("GET "+auth.RouteMe, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, status, map[string]string{"message": "nope"})
			})
			require.Nil(t, f.service.CurrentUser(context.Background()))
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("GET "+auth.RouteMe, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>login</html>"))
		})
		require.Nil(t, f.service.CurrentUser(context.Background()))
	})

	t.Run("null body", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("GET "+auth.RouteMe, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("null"))
		})
		require.Nil(t, f.service.CurrentUser(context.Background()))
	})

	t.Run("unreachable backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.Close()
		require.Nil(t, f.service.CurrentUser(context.Background()))
	})

	t.Run("authenticated", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("GET "+auth.RouteMe, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, testUser)
		})
		user := f.service.CurrentUser(context.Background())
		require.NotNil(t, user)
		require.Equal(t, testUser, *user)
	})
}

func TestService_Refresh(t *testing.T) {
	redirects := []int{http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect}
	for _, status := range redirects {
		t.Run("redirect "+http.StatusText(status), func(t *testing.T) {
			f := setupTestFixture(t)
			f.mux.HandleFunc("POST "+auth.RouteRefresh, func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/login", status)
			})
			require.Nil(t, f.service.Refresh(context.Background()))
		})
	}

	t.Run("non-2xx", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST "+auth.RouteRefresh, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		require.Nil(t, f.service.Refresh(context.Background()))
	})

	t.Run("malformed json", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST "+auth.RouteRefresh, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		})
		require.Nil(t, f.service.Refresh(context.Background()))
	})

	t.Run("unreachable backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.Close()
		require.Nil(t, f.service.Refresh(context.Background()))
	})

	t.Run("refreshed user", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("POST "+auth.RouteRefresh, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, users.AuthResponse{User: testUser, Token: "rotated"})
		})
		user := f.service.Refresh(context.Background())
		require.NotNil(t, user)
		require.Equal(t, testUser.Email, user.Email)
	})
}

func TestService_Logout(t *testing.T) {
	t.Run("backend failure is swallowed", func(t *testing.T) {
		f := setupTestFixture(t)
		var called atomic.Bool
		f.mux.HandleFunc("POST "+auth.RouteLogout, func(w http.ResponseWriter, r *http.Request) {
			called.Store(true)
			w.WriteHeader(http.StatusInternalServerError)
		})

		require.NotPanics(t, func() { f.service.Logout(context.Background()) })
		require.True(t, called.Load())
	})

	t.Run("unreachable backend is swallowed", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.Close()
		require.NotPanics(t, func() { f.service.Logout(context.Background()) })
	})
}
