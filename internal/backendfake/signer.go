package backendfake

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// hmacSigner signs access tokens with a symmetric secret that can be rotated
type hmacSigner struct {
	mu     sync.RWMutex
	secret []byte
}

func newHMACSigner(secret string) (*hmacSigner, error) {
	s := &hmacSigner{}
	if secret != "" {
		s.secret = []byte(secret)
		return s, nil
	}
	if err := s.rotate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *hmacSigner) Sign(claims jwt.MapClaims) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token with HMAC: %w", err)
	}
	return signedToken, nil
}

func (h *hmacSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.secret, nil
}

// rotate replaces the secret, invalidating every token signed so far
func (h *hmacSigner) rotate() error {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate HMAC secret: %w", err)
	}
	h.mu.Lock()
	h.secret = []byte(hex.EncodeToString(secret))
	h.mu.Unlock()
	return nil
}
