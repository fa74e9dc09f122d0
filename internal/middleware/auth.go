// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/obelenko/lurelab/internal/token"
)

type ctxKey string

const userKey ctxKey = "user"

// SessionVerifier validates a session token and returns its claims.
type SessionVerifier interface {
	Verify(tokenString, purpose string) (*token.Claims, error)
}

// SessionAuth enforces bearer session-token authentication.
//
// It expects an "Authorization: Bearer <token>" header carrying a token
// issued with the session purpose. On success the authenticated user ID is
// stored in the request context for downstream handlers. Tokens issued for
// any other purpose (such as password reset) are rejected.
func SessionAuth(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			bearer, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || bearer == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(bearer, token.PurposeSession)
			if err != nil {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
