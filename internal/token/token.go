// Package token mints and verifies HMAC-signed bearer tokens for the
// password-reset and session flows. Tokens are purpose-bound: a token
// issued for one purpose never verifies for another.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purposes a token can be minted for.
const (
	PurposeReset   = "password-reset"
	PurposeSession = "session"
)

// Default validity windows.
const (
	ResetTTL   = time.Hour
	SessionTTL = 12 * time.Hour
)

var (
	// ErrInvalid covers malformed input, bad signatures, and wrong purpose.
	ErrInvalid = errors.New("token invalid")
	// ErrExpired is returned for structurally valid tokens past their expiry.
	ErrExpired = errors.New("token expired")
)

// Claims carries the identity a token binds to its purpose.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
}

// Manager signs and verifies tokens with a server-held secret.
type Manager struct {
	secret []byte
}

// NewManager constructs a Manager. secret must be non-empty; the caller is
// expected to have validated it at startup.
func NewManager(secret []byte) *Manager {
	return &Manager{secret: secret}
}

// Issue mints a signed token binding userID (and optionally email) to the
// given purpose, valid for ttl from now.
func (m *Manager) Issue(userID, email, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:   email,
		Purpose: purpose,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature, expiry, and purpose. It returns the embedded
// claims on success and a sentinel error on any failure; it never panics on
// malformed input.
func (m *Manager) Verify(tokenString, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !token.Valid || claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
