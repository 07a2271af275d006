package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-account-dashboard/apiclient"
	"github.com/jrsteele09/go-account-dashboard/customers"
	"github.com/jrsteele09/go-account-dashboard/internal/errors"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/rs/zerolog/log"
)

const (
	viewHome      = "home"
	viewCustomers = "customers"
)

type NavItem struct {
	ID     string
	Label  string
	Href   string
	Active bool
}

// DashboardPageData contains data for rendering the dashboard
type DashboardPageData struct {
	AppName   string
	User      *users.User
	View      string
	Nav       []NavItem
	Columns   []customers.Column
	Customers []customers.Customer
	Query     string
	Error     string
}

func navigation(active string) []NavItem {
	return []NavItem{
		{ID: viewCustomers, Label: "Clientes", Href: RouteDashboardCustomers, Active: active == viewCustomers},
	}
}

// DashboardHandler renders a protected dashboard view. The guard only checked
// that a cookie is present; a session that cannot be restored goes back to
// the login page.
func (s *Server) DashboardHandler(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := visitorFrom(r)
		v.store.Bootstrap(r.Context())
		if v.store.User() == nil {
			http.Redirect(w, r, s.guard.LoginURL(r.URL.Path), http.StatusSeeOther)
			return
		}
		s.renderDashboard(w, r, v, view)
	}
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, v *visitor, view string) {
	data := DashboardPageData{
		AppName: s.config.GetAppName(),
		User:    v.store.User(),
		View:    view,
		Nav:     navigation(view),
		Columns: customers.Columns(),
		Query:   r.URL.Query().Get("q"),
	}

	if view == viewCustomers {
		list, err := v.customers.List(r.Context())
		switch {
		case errors.Is(err, errors.ErrAuthenticationRequired):
			http.Redirect(w, r, v.recorder.Target(), http.StatusSeeOther)
			return
		case err != nil:
			log.Err(err).Msg("Failed to load customers")
			data.Error = "Could not load customers"
			var apiErr *apiclient.Error
			if errors.As(err, &apiErr) {
				data.Error = apiErr.Message
			}
		default:
			data.Customers = customers.Filter(list, data.Query)
		}
	}

	s.render(w, http.StatusOK, templateDashboard, data)
}

// SessionAPIHandler returns the restored session state as JSON
func (s *Server) SessionAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := visitorFrom(r)
		v.store.Bootstrap(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(v.store.Snapshot()); err != nil {
			log.Err(err).Msg("Failed to encode session")
		}
	}
}
