package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-account-dashboard/auth"
	"github.com/jrsteele09/go-account-dashboard/server/oauthflow"
	"github.com/jrsteele09/go-account-dashboard/session"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/jrsteele09/go-account-dashboard/window"
	"github.com/rs/zerolog/log"
)

const oauthFailedMessage = "OAuth login failed"

// CallbackPageData contains data for rendering the auth callback page
type CallbackPageData struct {
	AppName   string
	Success   bool
	OAuth     bool
	Email     string
	ReturnURL string
}

// OAuthStartHandler starts an OAuth login (GET /oauth/{provider}). The login
// runs in the background, waiting for the callback page to post its outcome;
// the browser is redirected wherever the login navigates the window.
func (s *Server) OAuthStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := r.PathValue("provider")
		if _, ok := users.Provider(providerID); !ok {
			s.loginError(w, r, "Unknown sign-in provider")
			return
		}

		client, err := auth.NewHTTPClient(s.config.GetRequestTimeout(), s.transport)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		rec := window.NewRecorder()
		messages := window.NewMessages()
		win := window.New(s.config.GetBaseURL(), rec, messages)
		store := session.NewStore(auth.NewService(s.config.GetAPIURL(), client, win))

		flowID := uuid.New().String()
		flow := &oauthflow.Flow{
			Provider:  providerID,
			ReturnURL: s.safeRedirect(r.URL.Query().Get("from")),
			Messages:  messages,
			CreatedAt: time.Now(),
		}
		if err := s.flows.Upsert(flowID, flow); err != nil {
			s.serverError(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.config.GetOAuthTimeout())
		failed := make(chan error, 1)
		go func() {
			defer cancel()
			defer func() { _ = s.flows.Delete(flowID) }()

			if err := store.LoginWithOAuth(ctx, providerID); err != nil {
				log.Warn().Err(err).Str("provider", providerID).Msg("OAuth login did not complete")
				failed <- err
				return
			}
			log.Info().Str("provider", providerID).Str("email", store.User().Email).Msg("OAuth login completed")
		}()

		select {
		case <-rec.Navigated():
			http.SetCookie(w, &http.Cookie{
				Name:     s.config.GetOAuthFlowCookieName(),
				Value:    flowID,
				Path:     "/",
				MaxAge:   int(s.config.GetOAuthTimeout().Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			http.Redirect(w, r, rec.Target(), http.StatusFound)
		case <-failed:
			s.loginError(w, r, oauthFailedMessage)
		case <-r.Context().Done():
			cancel()
		}
	}
}

// AuthCallbackHandler shows the outcome of a registration or OAuth login. For
// a pending OAuth flow it restores the session the backend just created and
// posts the result to the waiting login.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data := CallbackPageData{
			AppName:   s.config.GetAppName(),
			Success:   q.Get("status") == "success",
			Email:     q.Get("email"),
			ReturnURL: "/",
		}

		flowCookie := s.config.GetOAuthFlowCookieName()
		if c, err := r.Cookie(flowCookie); err == nil && c.Value != "" {
			http.SetCookie(w, &http.Cookie{Name: flowCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

			if flow, err := s.flows.Get(c.Value); err == nil {
				data.OAuth = true
				data.ReturnURL = flow.ReturnURL
				data.Success = s.completeOAuthFlow(r, flow, data.Success, q.Get("error"))
			} else {
				log.Debug().Err(err).Msg("No pending OAuth flow for callback")
			}
		}

		s.render(w, http.StatusOK, templateCallback, data)
	}
}

func (s *Server) completeOAuthFlow(r *http.Request, flow *oauthflow.Flow, success bool, message string) bool {
	origin := s.config.GetBaseURL()

	if success {
		v := visitorFrom(r)
		v.store.Bootstrap(r.Context())
		if user := v.store.User(); user != nil {
			flow.Messages.Post(origin, window.Message{Type: window.TypeOAuthSuccess, User: user})
			return true
		}
	}

	if message == "" {
		message = oauthFailedMessage
	}
	flow.Messages.Post(origin, window.Message{Type: window.TypeOAuthError, Message: message})
	return false
}

func (s *Server) loginError(w http.ResponseWriter, r *http.Request, message string) {
	q := url.Values{"error": {message}}
	http.Redirect(w, r, s.config.GetLoginRoute()+"?"+q.Encode(), http.StatusSeeOther)
}
