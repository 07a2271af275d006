package server

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/jrsteele09/go-account-dashboard/apiclient"
	"github.com/jrsteele09/go-account-dashboard/auth"
	"github.com/jrsteele09/go-account-dashboard/customers"
	"github.com/jrsteele09/go-account-dashboard/session"
	"github.com/jrsteele09/go-account-dashboard/window"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyVisitor stores the per-request *visitor
const ContextKeyVisitor ContextKey = "visitor"

// visitor is everything that acts on behalf of one browser for the length of
// one request: a cookie jar seeded from the request, a session store and a
// window whose navigations become redirects.
type visitor struct {
	recorder  *window.Recorder
	window    *window.Window
	auth      *auth.Service
	store     *session.Store
	api       *apiclient.Client
	customers *customers.Service
	relay     *cookieRelay
}

func (s *Server) newVisitor(w http.ResponseWriter, r *http.Request) (*visitor, error) {
	relay := &cookieRelay{
		base:  s.transport,
		w:     w,
		names: s.sessionCookieNames(),
	}
	client, err := auth.NewHTTPClient(s.config.GetRequestTimeout(), relay)
	if err != nil {
		return nil, err
	}

	if backendURL, err := url.Parse(s.config.GetAPIURL()); err == nil {
		var seeded []*http.Cookie
		for _, name := range relay.names {
			if c, err := r.Cookie(name); err == nil && c.Value != "" {
				seeded = append(seeded, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
			}
		}
		client.Jar.SetCookies(backendURL, seeded)
	}

	rec := window.NewRecorder()
	win := window.New(s.config.GetBaseURL(), rec, nil)
	authService := auth.NewService(s.config.GetAPIURL(), client, win)
	api := apiclient.New(s.config.GetAPIURL(), client, win, s.config.GetLoginRoute())

	return &visitor{
		recorder:  rec,
		window:    win,
		auth:      authService,
		store:     session.NewStore(authService),
		api:       api,
		customers: customers.NewService(api),
		relay:     relay,
	}, nil
}

// VisitorMiddleware builds the visitor for the request and makes it
// available through the request context. Cookies stop being relayed once the
// handler returns.
func (s *Server) VisitorMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.newVisitor(w, r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		defer v.relay.detach()
		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyVisitor, v)))
	}
}

func visitorFrom(r *http.Request) *visitor {
	v, _ := r.Context().Value(ContextKeyVisitor).(*visitor)
	return v
}

func (s *Server) sessionCookieNames() []string {
	return []string{s.config.GetSessionCookieName(), s.config.GetRefreshCookieName()}
}

// cookieRelay passes session cookies set by the backend on to the browser,
// unchanged apart from the domain, so the browser holds the same opaque
// credentials the backend issued
type cookieRelay struct {
	base  http.RoundTripper
	names []string

	mu sync.Mutex
	w  http.ResponseWriter
}

func (c *cookieRelay) RoundTrip(req *http.Request) (*http.Response, error) {
	base := c.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return resp, nil
	}
	for _, cookie := range resp.Cookies() {
		if !c.relays(cookie.Name) {
			continue
		}
		cookie.Domain = ""
		http.SetCookie(c.w, cookie)
	}
	return resp, nil
}

func (c *cookieRelay) relays(name string) bool {
	for _, n := range c.names {
		if n == name {
			return true
		}
	}
	return false
}

func (c *cookieRelay) detach() {
	c.mu.Lock()
	c.w = nil
	c.mu.Unlock()
}
