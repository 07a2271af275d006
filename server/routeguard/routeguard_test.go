package routeguard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-account-dashboard/internal/config"
	"github.com/jrsteele09/go-account-dashboard/server/routeguard"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) *routeguard.Guard {
	t.Helper()
	return routeguard.New(config.Session{
		SessionCookie:     "access_token",
		ProtectedPrefixes: []string{"/dashboard"},
		AuthRoutes:        []string{"/login", "/register"},
		LoginRoute:        "/login",
	})
}

func TestGuard_Classify(t *testing.T) {
	g := newGuard(t)

	tests := []struct {
		path     string
		expected routeguard.Classification
	}{
		{path: "/", expected: routeguard.Classification{}},
		{path: "/dashboard", expected: routeguard.Classification{Protected: true}},
		{path: "/dashboard/settings", expected: routeguard.Classification{Protected: true}},
		{path: "/dashboards", expected: routeguard.Classification{Protected: true}},
		{path: "/login", expected: routeguard.Classification{AuthOnly: true}},
		{path: "/register", expected: routeguard.Classification{AuthOnly: true}},
		{path: "/login/extra", expected: routeguard.Classification{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.expected, g.Classify(tt.path))
		})
	}
}

func TestGuard_Middleware(t *testing.T) {
	g := newGuard(t)
	handler := g.Middleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("protected without cookie redirects with from", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/dashboard/settings", nil))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/login?from=%2Fdashboard%2Fsettings", rec.Header().Get("Location"))
	})

	t.Run("any cookie value passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/settings", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "expired-or-garbage"})
		rec := httptest.NewRecorder()
		handler(rec, req)

		require.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("empty cookie counts as absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: ""})
		rec := httptest.NewRecorder()
		handler(rec, req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("unprotected and auth-only paths pass", func(t *testing.T) {
		for _, path := range []string{"/", "/login", "/register", "/auth/callback"} {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusTeapot, rec.Code, path)
		}
	})

	t.Run("static and api are skipped", func(t *testing.T) {
		g := routeguard.New(config.Session{
			SessionCookie:     "access_token",
			ProtectedPrefixes: []string{"/"},
			LoginRoute:        "/login",
		})
		h := g.Middleware(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
		for _, path := range []string{"/static/app.css", "/api/session", "/favicon.ico"} {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusTeapot, rec.Code, path)
		}
	})
}
