// Package http provides HTTP handlers for account registration, login, and
// the password-reset and password-change flows.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/obelenko/lurelab/internal/middleware"
	"github.com/obelenko/lurelab/internal/models"
	"github.com/obelenko/lurelab/internal/service"
)

// AuthService defines the account-security operations required by the HTTP
// handlers.
type AuthService interface {
	// Register creates an account for the email/password pair.
	Register(ctx context.Context, email, password string) (*models.User, error)
	// Login authenticates the pair and returns the user plus a session token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	// ChangePassword re-verifies the current password and installs a new one.
	ChangePassword(ctx context.Context, userID, current, next string) error
	// RequestReset starts the reset flow; unknown emails are a silent no-op.
	RequestReset(ctx context.Context, email, baseURL string) error
	// CompleteReset redeems a reset token and installs the new password.
	CompleteReset(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles HTTP requests for the account-security endpoints.
type AuthHandler struct {
	// AuthService performs the underlying account-security operations.
	AuthService AuthService
	// BaseURL is the public origin used when building reset links.
	BaseURL string
	// Logger records internal failures that are hidden from clients.
	Logger *zap.Logger
	// Validate checks request payloads. Constructed once; safe for
	// concurrent use.
	Validate *validator.Validate
}

// NewAuthHandler constructs an AuthHandler around the given service.
func NewAuthHandler(svc AuthService, baseURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		AuthService: svc,
		BaseURL:     baseURL,
		Logger:      logger,
		Validate:    validator.New(),
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// decodeValid decodes the body into dst and runs payload validation.
func (h *AuthHandler) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.Validate.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError translates the service error taxonomy into HTTP
// responses. Internal errors are logged and surface as a generic 500.
func (h *AuthHandler) writeServiceError(w http.ResponseWriter, err error) {
	var attempts *service.AttemptsRemainingError
	switch {
	case errors.As(err, &attempts):
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":             service.ErrInvalidCredentials.Error(),
			"remainingAttempts": attempts.Remaining,
		})
	case errors.Is(err, service.ErrAccountLocked):
		writeJSON(w, http.StatusLocked, map[string]any{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
	case errors.Is(err, service.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenAlreadyUsed):
		// Distinguished internally; merged for the client.
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": service.ErrTokenInvalid.Error()})
	default:
		h.Logger.Error("internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
		return
	}

	u, err := h.AuthService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": u.ID, "email": u.Email})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
		return
	}

	u, session, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": u, "token": session})
}

// ForgotPassword handles POST /api/password/forgot. The response is
// success-shaped regardless of whether the email exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
		return
	}

	if err := h.AuthService.RequestReset(r.Context(), req.Email, h.BaseURL); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ResetPassword handles POST /api/password/reset.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
		return
	}

	if err := h.AuthService.CompleteReset(r.Context(), req.Token, req.Password); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ChangePassword handles POST /api/password/change. The caller must carry a
// valid session token; the user ID comes from the request context.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "authorization required"})
		return
	}

	var req changeRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
		return
	}

	if err := h.AuthService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
