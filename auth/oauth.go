package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/go-account-dashboard/internal/errors"
	"github.com/jrsteele09/go-account-dashboard/users"
	"github.com/jrsteele09/go-account-dashboard/window"
)

// OAuthFlow is a started OAuth login waiting for its completion message.
// Cancel must be called if the flow is abandoned.
type OAuthFlow struct {
	provider string

	mu       sync.Mutex
	remove   func()
	finished bool

	once sync.Once
	done chan struct{}
	user *users.User
	err  error
}

// AuthorizationURL is the backend URL that starts the provider handshake
func (s *Service) AuthorizationURL(provider string) string {
	return s.baseURL + RouteOAuthAuthPath + url.PathEscape(provider)
}

// BeginOAuth listens for the completion message and then navigates the
// window to the backend authorization URL. Only messages whose origin equals
// the window's origin are considered; others are ignored.
func (s *Service) BeginOAuth(provider string) (*OAuthFlow, error) {
	if strings.TrimSpace(provider) == "" {
		return nil, errors.ErrUnknownProvider
	}
	if s.window == nil {
		return nil, fmt.Errorf("[auth BeginOAuth] no window to navigate")
	}

	flow := &OAuthFlow{provider: provider, done: make(chan struct{})}
	origin := s.window.Origin()

	remove := s.window.Messages().Listen(func(ev window.Event) {
		if ev.Origin != origin {
			return
		}
		switch ev.Data.Type {
		case window.TypeOAuthSuccess:
			if ev.Data.User == nil {
				flow.finish(nil, &AuthError{Message: oauthFailedMessage})
				return
			}
			user := *ev.Data.User
			flow.finish(&user, nil)
		case window.TypeOAuthError:
			msg := ev.Data.Message
			if strings.TrimSpace(msg) == "" {
				msg = oauthFailedMessage
			}
			flow.finish(nil, &AuthError{Message: msg})
		}
	})
	flow.attach(remove)

	s.window.Navigate(s.AuthorizationURL(provider))
	return flow, nil
}

// LoginWithOAuth starts a flow and waits for it. The listener is removed when
// this returns, including when ctx ends first.
func (s *Service) LoginWithOAuth(ctx context.Context, provider string) (*users.User, error) {
	flow, err := s.BeginOAuth(provider)
	if err != nil {
		return nil, err
	}
	defer flow.Cancel()
	return flow.Wait(ctx)
}

func (f *OAuthFlow) Provider() string {
	return f.provider
}

// Wait blocks until the flow completes, is cancelled, or ctx ends
func (f *OAuthFlow) Wait(ctx context.Context) (*users.User, error) {
	select {
	case <-f.done:
		return f.user, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", errors.ErrOAuthCancelled, ctx.Err())
	}
}

// Done is closed once the flow has an outcome
func (f *OAuthFlow) Done() <-chan struct{} {
	return f.done
}

// Cancel deregisters the message listener. Pending waiters fail with
// ErrOAuthCancelled; a flow that already completed keeps its outcome.
func (f *OAuthFlow) Cancel() {
	f.finish(nil, errors.ErrOAuthCancelled)
}

func (f *OAuthFlow) finish(user *users.User, err error) {
	f.once.Do(func() {
		f.user = user
		f.err = err
		close(f.done)
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = true
	if f.remove != nil {
		f.remove()
	}
}

// attach stores the listener remover; a message may already have finished the flow
func (f *OAuthFlow) attach(remove func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remove = remove
	if f.finished {
		remove()
	}
}
