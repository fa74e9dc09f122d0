// Package http provides HTTP routing and middleware configuration
// for the account-security service.
package http

import (
	"net/http"

	"github.com/didip/tollbooth/v6"
	"go.uber.org/zap"

	"github.com/obelenko/lurelab/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// account-security API.
//
// Parameters:
//
//	authHandler - handler for the account-security endpoints
//	verifier    - session-token verifier for the protected group
//	logger      - structured logger for request logging middleware
//	rateLimit   - per-IP requests per second on the public auth endpoints
//
// Routes:
//
//	POST /api/register         → authHandler.Register
//	POST /api/login            → authHandler.Login
//	POST /api/password/forgot  → authHandler.ForgotPassword
//	POST /api/password/reset   → authHandler.ResetPassword
//	POST /api/password/change  → authHandler.ChangePassword (session auth)
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. WithRequestLogging(logger)          — logs incoming requests
//  3. tollbooth rate limiting             — public endpoints only
//  4. SessionAuth                         — protected endpoints only
func NewRouter(
	authHandler *AuthHandler,
	verifier middleware.SessionVerifier,
	logger *zap.Logger,
	rateLimit float64,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	lmt := tollbooth.NewLimiter(rateLimit, nil)
	lmt.SetIPLookups([]string{"X-Forwarded-For", "RemoteAddr", "X-Real-IP"})
	lmt.SetMessageContentType("application/json")
	lmt.SetMessage(`{"error":"too many requests"}`)
	withRateLimit := func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		// Public endpoints, rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(withRateLimit)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/password/forgot", authHandler.ForgotPassword)
			r.Post("/password/reset", authHandler.ResetPassword)
		})

		// Protected group: requires a valid session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(verifier))
			r.Post("/password/change", authHandler.ChangePassword)
		})
	})

	return r
}
