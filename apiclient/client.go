// Package apiclient is the shared client for authenticated backend API calls.
// A 401 triggers one session refresh and one retry; if either fails the
// window is sent to the login page.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-account-dashboard/auth"
	"github.com/jrsteele09/go-account-dashboard/internal/errors"
	"github.com/jrsteele09/go-account-dashboard/window"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	requestFailed  = "Request failed"
	maxErrorBody   = 64 << 10
	refreshTimeout = 30 * time.Second
)

// Error is a non-401 API failure with a user-visible message
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	client     *http.Client
	window     *window.Window
	loginRoute string

	// refreshClient reports a redirected refresh as a failure
	refreshClient *http.Client

	refreshes singleflight.Group
}

// New returns a client for baseURL. client must carry the session cookie jar;
// win receives the login navigation when the session cannot be renewed.
func New(baseURL string, client *http.Client, win *window.Window, loginRoute string) *Client {
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		client:        client,
		window:        win,
		loginRoute:    loginRoute,
		refreshClient: auth.WithoutRedirects(client),
	}
}

func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Do sends the request and decodes a 2xx JSON body into out (when non-nil).
// It refreshes the session and retries at most once.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("[apiclient %s %s] encode body: %w", method, endpoint, err)
		}
		payload = b
	}

	resp, err := c.send(ctx, c.client, method, endpoint, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return c.refreshAndRetry(ctx, method, endpoint, payload, out)
	}
	return decode(resp, out)
}

func (c *Client) refreshAndRetry(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	ok, err := c.refresh(ctx)
	if err != nil {
		return fmt.Errorf("[apiclient %s %s] refresh: %w", method, endpoint, err)
	}
	if !ok {
		return c.authenticationRequired()
	}

	resp, err := c.send(ctx, c.client, method, endpoint, payload)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Msg("Retry after refresh failed")
		return c.authenticationRequired()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		log.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("Retry after refresh rejected")
		return c.authenticationRequired()
	}
	return decode(resp, out)
}

// refresh renews the session cookies. Concurrent callers share one request,
// which outlives any single caller; a caller whose ctx ends stops waiting
// and gets ctx.Err().
func (c *Client) refresh(ctx context.Context) (bool, error) {
	results := c.refreshes.DoChan("refresh", func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		resp, err := c.send(refreshCtx, c.refreshClient, http.MethodPost, auth.RouteRefresh, nil)
		if err != nil {
			log.Err(err).Msg("Token refresh failed")
			return false, nil
		}
		drain(resp)
		return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
	})

	select {
	case res := <-results:
		ok, _ := res.Val.(bool)
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Client) authenticationRequired() error {
	if c.window != nil {
		c.window.Navigate(c.loginRoute)
	}
	return errors.ErrAuthenticationRequired
}

func (c *Client) send(ctx context.Context, client *http.Client, method, endpoint string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient %s %s] new request: %w", method, endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[apiclient %s %s] %w", method, endpoint, err)
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: failureMessage(resp)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrapf(errors.ErrInvalidResponse, "[apiclient] %s", err)
	}
	return nil
}

// failureMessage uses the JSON message when the body is JSON, and the status
// text only when it is not
func failureMessage(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		return requestFailed
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return requestFailed
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
