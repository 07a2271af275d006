package backendfake

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-account-dashboard/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const refreshTokenLength = 32

type storedRefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

// tokenIssuer creates signed access tokens and opaque, single-use refresh tokens
type tokenIssuer struct {
	signer        *hmacSigner
	accessExpiry  time.Duration
	refreshExpiry time.Duration

	mu      sync.Mutex
	refresh map[string]storedRefreshToken
}

func newTokenIssuer(signer *hmacSigner, accessExpiry, refreshExpiry time.Duration) *tokenIssuer {
	return &tokenIssuer{
		signer:        signer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		refresh:       make(map[string]storedRefreshToken),
	}
}

func (t *tokenIssuer) CreateAccessToken(a *account) (string, error) {
	now := NowTimeFunc()
	claims := jwt.MapClaims{
		"sub":        a.User.ID,
		"email":      a.User.Email,
		"iat":        now.Unix(),
		"exp":        now.Add(t.accessExpiry).Unix(),
		"jti":        uuid.New().String(),
		"token_type": "access",
	}
	signed, err := t.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken returns the user id the token was issued to
func (t *tokenIssuer) VerifyAccessToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, t.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(NowTimeFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("[backendfake VerifyAccessToken] %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.Wrapf(errors.ErrInvalidResponse, "unexpected claims")
	}
	if typ, _ := claims["token_type"].(string); typ != "access" {
		return "", fmt.Errorf("[backendfake VerifyAccessToken] not an access token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("[backendfake VerifyAccessToken] missing subject")
	}
	return sub, nil
}

// CreateRefreshToken replaces any refresh token the user already holds
func (t *tokenIssuer) CreateRefreshToken(userID string) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	tokenStr := hex.EncodeToString(tokenBytes)

	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range t.refresh {
		if v.UserID == userID {
			delete(t.refresh, k)
		}
	}
	t.refresh[tokenStr] = storedRefreshToken{Token: tokenStr, UserID: userID, Iat: NowTimeFunc()}
	return tokenStr, nil
}

// RedeemRefreshToken consumes token and returns its user id
func (t *tokenIssuer) RedeemRefreshToken(token string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rt, ok := t.refresh[token]
	if !ok {
		return "", errors.ErrNotFound
	}
	delete(t.refresh, token)
	if NowTimeFunc().Sub(rt.Iat) > t.refreshExpiry {
		return "", errors.ErrSessionExpired
	}
	return rt.UserID, nil
}

func (t *tokenIssuer) RevokeRefreshToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.refresh, token)
}
