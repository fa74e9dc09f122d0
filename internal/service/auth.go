// Package service implements the account-security business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/obelenko/lurelab/internal/lockout"
	"github.com/obelenko/lurelab/internal/models"
	"github.com/obelenko/lurelab/internal/password"
	"github.com/obelenko/lurelab/internal/repository"
	"github.com/obelenko/lurelab/internal/token"
)

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicateEmail)
}

// UserRepository defines the user persistence operations required by the
// authentication service. Lookup methods return (nil, nil) for absent users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateCredentials(ctx context.Context, id, passwordHash string) error
	UpdateLockState(ctx context.Context, u *models.User) error
}

// ResetTokenRepository defines the reset-token persistence operations
// required by the reset flow.
type ResetTokenRepository interface {
	Create(ctx context.Context, t *models.ResetToken) error
	GetByValue(ctx context.Context, value string) (*models.ResetToken, error)
	MarkUsed(ctx context.Context, id string) error
}

// Mailer delivers the reset link out of band. Failures surface to the
// caller as internal errors; the response shape stays non-enumerating.
type Mailer interface {
	Send(ctx context.Context, to, resetURL string) error
}

// AuthService orchestrates lookup, lockout, hashing, and token issuance
// into the login, registration, and credential-lifecycle operations.
type AuthService struct {
	users   UserRepository
	resets  ResetTokenRepository
	mailer  Mailer
	tracker *lockout.Tracker
	tokens  *token.Manager
	logger  *zap.Logger

	// dummyHash is verified against when the email is unknown so that the
	// unknown-email and wrong-password paths stay in the same timing class.
	dummyHash string

	// now is stubbed in tests.
	now func() time.Time
}

// NewAuthService constructs an AuthService wired to the given collaborators.
func NewAuthService(
	users UserRepository,
	resets ResetTokenRepository,
	mailer Mailer,
	tracker *lockout.Tracker,
	tokens *token.Manager,
	logger *zap.Logger,
) (*AuthService, error) {
	dummy, err := password.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy credential: %w", err)
	}
	return &AuthService{
		users:     users,
		resets:    resets,
		mailer:    mailer,
		tracker:   tracker,
		tokens:    tokens,
		logger:    logger,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// Register creates a new account. The password must satisfy the complexity
// policy; a taken email yields ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, email, plaintext string) (*models.User, error) {
	if reason := password.CheckPolicy(plaintext); reason != "" {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, reason)
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

// Login authenticates an email/password pair. On success it returns the
// user and a signed session token. Failures are reported through the error
// taxonomy: ErrInvalidCredentials (possibly an AttemptsRemainingError) or a
// LockedError.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*models.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		// Burn a comparable amount of KDF work before rejecting.
		password.Verify(plaintext, s.dummyHash)
		return nil, "", ErrInvalidCredentials
	}

	now := s.now()
	decision := s.tracker.Check(u, now)
	if !decision.Allowed {
		return nil, "", &LockedError{Reason: decision.Reason}
	}
	if decision.Dirty {
		if err := s.users.UpdateLockState(ctx, u); err != nil {
			return nil, "", fmt.Errorf("persist lock state: %w", err)
		}
	}

	if !password.Verify(plaintext, u.PasswordHash) {
		lockedNow := s.tracker.RecordFailure(u, now)
		if err := s.users.UpdateLockState(ctx, u); err != nil {
			return nil, "", fmt.Errorf("persist lock state: %w", err)
		}
		if lockedNow {
			s.logger.Warn("account locked after repeated failures",
				zap.String("user_id", u.ID),
				zap.Int("failed_attempts", u.FailedAttempts))
			return nil, "", &LockedError{Reason: s.tracker.LockMessage(u, now), LockedNow: true}
		}
		return nil, "", &AttemptsRemainingError{Remaining: s.tracker.Remaining(u)}
	}

	if u.FailedAttempts > 0 || u.Locked {
		s.tracker.RecordSuccess(u)
		if err := s.users.UpdateLockState(ctx, u); err != nil {
			return nil, "", fmt.Errorf("persist lock state: %w", err)
		}
	}

	session, err := s.tokens.Issue(u.ID, u.Email, token.PurposeSession, token.SessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	return u, session, nil
}

// ChangePassword replaces the credential of an authenticated user after
// re-verifying the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return ErrInvalidCredentials
	}

	if !password.Verify(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}

	if reason := password.CheckPolicy(next); reason != "" {
		return fmt.Errorf("%w: %s", ErrWeakPassword, reason)
	}

	hash, err := password.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdateCredentials(ctx, u.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", u.ID))
	return nil
}
