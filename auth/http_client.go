package auth

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// NewHTTPClient returns a client with a cookie jar so that session cookies set
// by the backend are sent back automatically. transport may be nil.
func NewHTTPClient(timeout time.Duration, transport http.RoundTripper) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("[auth NewHTTPClient] cookie jar: %w", err)
	}
	return &http.Client{
		Jar:       jar,
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// WithoutRedirects copies client so that 3xx responses are returned to the
// caller instead of being followed
func WithoutRedirects(client *http.Client) *http.Client {
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// isRedirect also covers status 0, which is how an opaque redirect surfaces
// to clients that never see the real status line
func isRedirect(status int) bool {
	return status == 0 || (status >= 300 && status < 400)
}
