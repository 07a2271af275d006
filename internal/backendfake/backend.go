// Package backendfake is an in-memory identity and customer backend that
// speaks the same HTTP contract as the real one. It backs local development
// and the server tests.
package backendfake

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-account-dashboard/auth"
	"github.com/jrsteele09/go-account-dashboard/customers"
	fakecustomerrepo "github.com/jrsteele09/go-account-dashboard/customers/fakerepo"
	"github.com/jrsteele09/go-account-dashboard/internal/errors"
	"github.com/jrsteele09/go-account-dashboard/internal/utils"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/rs/zerolog/log"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	RouteCallback = "/auth/callback"
)

type Config struct {
	// DashboardURL receives the browser after an OAuth handshake
	DashboardURL       string
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Customers          []customers.Customer
}

type Backend struct {
	config    Config
	mux       *http.ServeMux
	validate  *validator.Validate
	accounts  *accountRepo
	tokens    *tokenIssuer
	signer    *hmacSigner
	customers customers.Repo
}

func New(cfg Config) (*Backend, error) {
	if cfg.AccessTokenExpiry <= 0 {
		cfg.AccessTokenExpiry = 15 * time.Minute
	}
	if cfg.RefreshTokenExpiry <= 0 {
		cfg.RefreshTokenExpiry = 7 * 24 * time.Hour
	}
	if cfg.Customers == nil {
		cfg.Customers = customers.Seed()
	}
	cfg.DashboardURL = strings.TrimSuffix(cfg.DashboardURL, "/")

	signer, err := newHMACSigner(cfg.Secret)
	if err != nil {
		return nil, errors.Wrapf(err, "[backendfake New]")
	}

	b := &Backend{
		config:    cfg,
		mux:       http.NewServeMux(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		accounts:  newAccountRepo(),
		signer:    signer,
		tokens:    newTokenIssuer(signer, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry),
		customers: fakecustomerrepo.NewFakeCustomerRepo(cfg.Customers...),
	}
	b.initRoutes()
	return b, nil
}

func (b *Backend) initRoutes() {
	b.mux.HandleFunc("POST "+auth.RouteLogin, b.LoginHandler())
	b.mux.HandleFunc("POST "+auth.RouteSignup, b.SignupHandler())
	b.mux.HandleFunc("GET "+auth.RouteMe, b.MeHandler())
	b.mux.HandleFunc("POST "+auth.RouteRefresh, b.RefreshHandler())
	b.mux.HandleFunc("POST "+auth.RouteLogout, b.LogoutHandler())
	b.mux.HandleFunc("GET "+auth.RouteOAuthAuthPath+"{provider}", b.OAuthAuthorizationHandler())
	b.mux.HandleFunc("GET "+customers.RouteCustomers, b.requireAccess(b.ListCustomersHandler()))
	b.mux.HandleFunc("GET "+customers.RouteCustomers+"/{id}", b.requireAccess(b.GetCustomerHandler()))
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// AddUser creates a password account directly
func (b *Backend) AddUser(email, password, name string) (*users.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrapf(err, "[backendfake AddUser]")
	}
	a := &account{
		User: users.User{
			Email:     normaliseEmail(email),
			Name:      name,
			CreatedAt: NowTimeFunc().UTC().Format(time.RFC3339),
		},
		PasswordHash: hash,
	}
	if err := b.accounts.Upsert(a); err != nil {
		return nil, err
	}
	created, err := b.accounts.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	return &created.User, nil
}

// RotateSigningKey invalidates every access token issued so far. Refresh
// tokens stay valid.
func (b *Backend) RotateSigningKey() error {
	return b.signer.rotate()
}

func (b *Backend) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := b.validate.Struct(req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		a, err := b.accounts.GetByEmail(req.Email)
		if err != nil || !CheckPasswordHash(req.Password, a.PasswordHash) {
			writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		b.startSession(w, a, http.StatusOK)
	}
}

func (b *Backend) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := b.validate.Struct(req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Name, email and password are required")
			return
		}
		if err := ValidatePasswordStrength(req.Password); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := b.accounts.GetByEmail(req.Email); err == nil {
			writeMessage(w, http.StatusConflict, "Email already registered")
			return
		}

		if _, err := b.AddUser(req.Email, req.Password, req.Name); err != nil {
			log.Err(err).Msg("Failed to create user")
			writeMessage(w, http.StatusInternalServerError, "Could not create account")
			return
		}
		a, err := b.accounts.GetByEmail(req.Email)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Could not create account")
			return
		}
		b.startSession(w, a, http.StatusCreated)
	}
}

// MeHandler answers an unauthenticated caller with a redirect, the way the
// real backend's security filter does
func (b *Backend) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := b.authenticated(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		writeJSON(w, http.StatusOK, a.User)
	}
}

func (b *Backend) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(RefreshCookie)
		if err != nil || c.Value == "" {
			writeMessage(w, http.StatusUnauthorized, "Refresh token missing")
			return
		}
		userID, err := b.tokens.RedeemRefreshToken(c.Value)
		if err != nil {
			clearCookies(w)
			writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		a, err := b.accounts.GetByID(userID)
		if err != nil {
			clearCookies(w)
			writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		if _, ok := b.setSessionCookies(w, a); !ok {
			return
		}
		writeJSON(w, http.StatusOK, struct {
			User users.User `json:"user"`
		}{User: a.User})
	}
}

func (b *Backend) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(RefreshCookie); err == nil {
			b.tokens.RevokeRefreshToken(c.Value)
		}
		clearCookies(w)
		w.WriteHeader(http.StatusOK)
	}
}

// OAuthAuthorizationHandler stands in for a provider handshake: known
// providers sign in a per-provider development account and send the browser
// to the dashboard callback.
func (b *Backend) OAuthAuthorizationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := r.PathValue("provider")
		provider, ok := users.Provider(providerID)
		if !ok {
			b.redirectToCallback(w, r, url.Values{"status": {"error"}, "error": {"Unknown provider"}})
			return
		}

		email := provider.ID + "-user@example.com"
		a, err := b.accounts.GetByEmail(email)
		if err != nil {
			a = &account{User: users.User{
				Email:     email,
				Name:      provider.Name + " User",
				Avatar:    utils.Ptr("https://avatars.example.com/" + provider.ID + ".png"),
				CreatedAt: NowTimeFunc().UTC().Format(time.RFC3339),
			}}
			if err := b.accounts.Upsert(a); err != nil {
				b.redirectToCallback(w, r, url.Values{"status": {"error"}})
				return
			}
			if a, err = b.accounts.GetByEmail(email); err != nil {
				b.redirectToCallback(w, r, url.Values{"status": {"error"}})
				return
			}
		}

		if _, ok := b.setSessionCookies(w, a); !ok {
			return
		}
		b.redirectToCallback(w, r, url.Values{"status": {"success"}, "email": {a.User.Email}})
	}
}

func (b *Backend) ListCustomersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := b.customers.List(0, 0)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Could not list customers")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (b *Backend) GetCustomerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := b.customers.Get(r.PathValue("id"))
		if err != nil {
			writeMessage(w, http.StatusNotFound, "Customer not found")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func (b *Backend) requireAccess(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := b.authenticated(r); err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

func (b *Backend) authenticated(r *http.Request) (*account, error) {
	c, err := r.Cookie(AccessCookie)
	if err != nil {
		return nil, errors.ErrAuthenticationRequired
	}
	userID, err := b.tokens.VerifyAccessToken(c.Value)
	if err != nil {
		return nil, err
	}
	return b.accounts.GetByID(userID)
}

func (b *Backend) startSession(w http.ResponseWriter, a *account, status int) {
	access, ok := b.setSessionCookies(w, a)
	if !ok {
		return
	}
	writeJSON(w, status, users.AuthResponse{User: a.User, Token: access})
}

func (b *Backend) setSessionCookies(w http.ResponseWriter, a *account) (string, bool) {
	access, err := b.tokens.CreateAccessToken(a)
	if err != nil {
		log.Err(err).Msg("Failed to create access token")
		writeMessage(w, http.StatusInternalServerError, "Could not start session")
		return "", false
	}
	refresh, err := b.tokens.CreateRefreshToken(a.User.ID)
	if err != nil {
		log.Err(err).Msg("Failed to create refresh token")
		writeMessage(w, http.StatusInternalServerError, "Could not start session")
		return "", false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookie,
		Value:    access,
		Path:     "/",
		MaxAge:   int(b.config.AccessTokenExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    refresh,
		Path:     "/",
		MaxAge:   int(b.config.RefreshTokenExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return access, true
}

func (b *Backend) redirectToCallback(w http.ResponseWriter, r *http.Request, q url.Values) {
	http.Redirect(w, r, b.config.DashboardURL+RouteCallback+"?"+q.Encode(), http.StatusFound)
}

func clearCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
