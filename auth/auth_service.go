package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/jrsteele09/go-account-dashboard/window"
	"github.com/rs/zerolog/log"
)

// Backend endpoints
const (
	RouteLogin         = "/auth/login"
	RouteSignup        = "/auth/signup"
	RouteMe            = "/auth/me"
	RouteRefresh       = "/auth/refresh"
	RouteLogout        = "/auth/logout"
	RouteOAuthAuthPath = "/oauth2/authorization/"
)

// Service issues session calls against the identity backend. The session
// cookie pair lives in the client's cookie jar; no Authorization header is
// ever set.
type Service struct {
	baseURL          string
	client           *http.Client
	noRedirectClient *http.Client
	window           *window.Window
}

func NewService(baseURL string, client *http.Client, win *window.Window) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		client:           client,
		noRedirectClient: WithoutRedirects(client),
		window:           win,
	}
}

// Login posts credentials. A non-2xx response fails with *AuthError.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, error) {
	return s.authenticate(ctx, RouteLogin, users.LoginRequest{Email: email, Password: password}, loginFailedMessage)
}

// Register creates an account and signs it in
func (s *Service) Register(ctx context.Context, email, password, name string) (*users.User, error) {
	req := users.RegisterRequest{Email: email, Password: password, Name: name}
	return s.authenticate(ctx, RouteSignup, req, registrationFailedMessage)
}

func (s *Service) authenticate(ctx context.Context, path string, body any, fallback string) (*users.User, error) {
	resp, err := s.do(ctx, s.client, http.MethodPost, path, body)
	if err != nil {
		return nil, fmt.Errorf("[auth %s] %w", path, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, &AuthError{Status: resp.StatusCode, Message: errorMessage(resp.Body, fallback)}
	}

	var data users.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("[auth %s] decode response: %w", path, err)
	}
	return &data.User, nil
}

// CurrentUser returns the user of the current session, or nil when there is
// none. Redirects are not followed: a redirect means "not authenticated".
// It never fails.
func (s *Service) CurrentUser(ctx context.Context) *users.User {
	resp, err := s.do(ctx, s.noRedirectClient, http.MethodGet, RouteMe, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Current user check failed")
		return nil
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) || !isSuccess(resp.StatusCode) {
		return nil
	}

	var user *users.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil
	}
	return user
}

// Refresh asks the backend to rotate the session using the refresh cookie.
// Any failure yields nil.
func (s *Service) Refresh(ctx context.Context) *users.User {
	resp, err := s.do(ctx, s.noRedirectClient, http.MethodPost, RouteRefresh, nil)
	if err != nil {
		log.Error().Err(err).Msg("Token refresh failed")
		return nil
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) || !isSuccess(resp.StatusCode) {
		return nil
	}

	var data struct {
		User *users.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Error().Err(err).Msg("Token refresh failed")
		return nil
	}
	return data.User
}

// Logout is best effort: failures are logged, never returned
func (s *Service) Logout(ctx context.Context) {
	resp, err := s.do(ctx, s.client, http.MethodPost, RouteLogout, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Logout request failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !isSuccess(resp.StatusCode) {
		log.Warn().Int("status", resp.StatusCode).Msg("Logout request failed")
	}
}

func (s *Service) do(ctx context.Context, client *http.Client, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}
