package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-account-dashboard/internal/errors"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName   string
	From      string
	Email     string
	Error     string
	Providers []users.OAuthProvider
}

// RegisterPageData contains data for rendering the registration page
type RegisterPageData struct {
	AppName   string
	Name      string
	Email     string
	Error     string
	Providers []users.OAuthProvider
}

// IndexHandler restores the session silently and shows the dashboard, or the
// login form when there is nothing to restore
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := visitorFrom(r)
		v.store.Bootstrap(r.Context())

		if user := v.store.User(); user != nil {
			s.renderDashboard(w, r, v, viewHome)
			return
		}
		s.render(w, http.StatusOK, templateLogin, LoginPageData{
			AppName:   s.config.GetAppName(),
			Providers: users.Providers(),
		})
	}
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		s.render(w, http.StatusOK, templateLogin, LoginPageData{
			AppName:   s.config.GetAppName(),
			From:      q.Get("from"),
			Email:     q.Get("email"),
			Error:     q.Get("error"),
			Providers: users.Providers(),
		})
	}
}

// LoginSubmissionHandler handles the login form (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		req := users.LoginRequest{
			Email:    strings.TrimSpace(r.PostFormValue("email")),
			Password: r.PostFormValue("password"),
		}
		from := r.PostFormValue("from")

		retry := func(message string) {
			q := url.Values{"error": {message}, "email": {req.Email}}
			if from != "" {
				q.Set("from", from)
			}
			http.Redirect(w, r, RouteLogin+"?"+q.Encode(), http.StatusSeeOther)
		}

		if err := s.validate.Struct(req); err != nil {
			retry(validationMessage(err))
			return
		}

		v := visitorFrom(r)
		if err := v.store.Login(r.Context(), req.Email, req.Password); err != nil {
			retry(v.store.Snapshot().Error)
			return
		}

		log.Info().Str("email", req.Email).Msg("User logged in")
		http.Redirect(w, r, s.safeRedirect(from), http.StatusSeeOther)
	}
}

// RegisterPageHandler displays the registration page (GET /register)
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		s.render(w, http.StatusOK, templateRegister, RegisterPageData{
			AppName:   s.config.GetAppName(),
			Name:      q.Get("name"),
			Email:     q.Get("email"),
			Error:     q.Get("error"),
			Providers: users.Providers(),
		})
	}
}

// RegisterSubmissionHandler creates the account and shows the callback page
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		form := users.RegisterForm{
			Name:            strings.TrimSpace(r.PostFormValue("name")),
			Email:           strings.TrimSpace(r.PostFormValue("email")),
			Password:        r.PostFormValue("password"),
			ConfirmPassword: r.PostFormValue("confirmPassword"),
		}

		retry := func(message string) {
			q := url.Values{"error": {message}, "name": {form.Name}, "email": {form.Email}}
			http.Redirect(w, r, RouteRegister+"?"+q.Encode(), http.StatusSeeOther)
		}

		if err := s.validate.Struct(form); err != nil {
			retry(validationMessage(err))
			return
		}

		v := visitorFrom(r)
		req := form.Request()
		if err := v.store.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
			retry(v.store.Snapshot().Error)
			return
		}

		log.Info().Str("email", req.Email).Msg("User registered")
		q := url.Values{"status": {"success"}, "email": {req.Email}}
		http.Redirect(w, r, RouteAuthCallback+"?"+q.Encode(), http.StatusSeeOther)
	}
}

// LogoutHandler ends the session. The browser's cookies are cleared even when
// the backend call fails.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := visitorFrom(r)
		v.store.Logout(r.Context())
		v.relay.detach()

		for _, name := range s.sessionCookieNames() {
			http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
		}
		http.Redirect(w, r, s.config.GetLoginRoute(), http.StatusSeeOther)
	}
}

// safeRedirect only follows local paths; anything else goes to the default page
func (s *Server) safeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return s.config.GetDefaultRedirect()
	}
	return from
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid form data"
	}
	fe := verrs[0]
	switch {
	case fe.Tag() == "eqfield":
		return "Passwords do not match"
	case fe.Tag() == "email":
		return "Please enter a valid email address"
	case fe.Tag() == "required":
		return "Please fill in all fields"
	default:
		return "Invalid form data"
	}
}
