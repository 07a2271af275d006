package auth

import (
	"encoding/json"
	"io"
	"strings"
)

const (
	loginFailedMessage        = "Login failed"
	registrationFailedMessage = "Registration failed"
	oauthFailedMessage        = "OAuth login failed"
)

// AuthError is a credential or validation failure reported by the backend.
// Message is safe to show to the visitor.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// maxErrorBody caps how much of an error response is read looking for a message
const maxErrorBody = 64 << 10

// errorMessage extracts the "message" field of a JSON error body. Bodies that
// are not JSON (an HTML error page, an empty body) yield fallback.
func errorMessage(body io.Reader, fallback string) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return fallback
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fallback
	}
	if strings.TrimSpace(payload.Message) == "" {
		return fallback
	}
	return payload.Message
}
