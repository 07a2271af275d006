// Package routeguard gates protected pages on the presence of the session
// cookie. It never validates the cookie or calls the backend: an expired
// cookie passes and the page's own API calls deal with the 401.
package routeguard

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// Classification is derived per request from the path alone
type Classification struct {
	Protected bool
	AuthOnly  bool
}

// Config is the subset of the dashboard configuration the guard needs
type Config interface {
	GetSessionCookieName() string
	GetProtectedPrefixes() []string
	GetAuthRoutes() []string
	GetLoginRoute() string
}

// skipped paths are never guarded
var skipped = []string{"/static/", "/api/", "/favicon.ico"}

type Guard struct {
	cookieName string
	protected  []string
	authRoutes []string
	loginRoute string
}

func New(cfg Config) *Guard {
	return &Guard{
		cookieName: cfg.GetSessionCookieName(),
		protected:  slices.Clone(cfg.GetProtectedPrefixes()),
		authRoutes: slices.Clone(cfg.GetAuthRoutes()),
		loginRoute: cfg.GetLoginRoute(),
	}
}

// Classify: protected when the path starts with a protected prefix, auth-only
// when it equals one of the auth routes
func (g *Guard) Classify(path string) Classification {
	var c Classification
	for _, prefix := range g.protected {
		if strings.HasPrefix(path, prefix) {
			c.Protected = true
			break
		}
	}
	c.AuthOnly = slices.Contains(g.authRoutes, path)
	return c
}

// HasSession reports whether the request carries a non-empty session cookie
func (g *Guard) HasSession(r *http.Request) bool {
	c, err := r.Cookie(g.cookieName)
	return err == nil && c.Value != ""
}

// LoginURL is the login route with from set to path
func (g *Guard) LoginURL(path string) string {
	return g.loginRoute + "?" + url.Values{"from": {path}}.Encode()
}

func (g *Guard) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		for _, prefix := range skipped {
			if strings.HasPrefix(path, prefix) {
				next(w, r)
				return
			}
		}

		if g.Classify(path).Protected && !g.HasSession(r) {
			log.Debug().Str("path", path).Msg("No session cookie, redirecting to login")
			http.Redirect(w, r, g.LoginURL(path), http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
