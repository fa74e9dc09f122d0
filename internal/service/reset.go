package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/obelenko/lurelab/internal/models"
	"github.com/obelenko/lurelab/internal/password"
	"github.com/obelenko/lurelab/internal/token"
)

// RequestReset starts the password-reset flow for the given email. When the
// email is unknown it returns nil without side effects, keeping the
// response indistinguishable from the known-email case. baseURL is the
// public origin the reset link should point at.
func (s *AuthService) RequestReset(ctx context.Context, email, baseURL string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil
	}

	signed, err := s.tokens.Issue(u.ID, u.Email, token.PurposeReset, token.ResetTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	now := s.now().UTC()
	record := &models.ResetToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     signed,
		IssuedAt:  now,
		ExpiresAt: now.Add(token.ResetTTL),
	}
	if err := s.resets.Create(ctx, record); err != nil {
		return err
	}

	resetURL := baseURL + "/reset-password?token=" + url.QueryEscape(signed)
	if err := s.mailer.Send(ctx, u.Email, resetURL); err != nil {
		return fmt.Errorf("dispatch reset mail: %w", err)
	}

	s.logger.Info("reset token issued", zap.String("user_id", u.ID))
	return nil
}

// CompleteReset redeems a reset token and installs the new password.
//
// The signed token and the persisted record are independent checks and both
// must pass: a well-formed signature without a matching unused row fails,
// and a row without a verifiable signature is unreachable by construction.
// Redemption is single-use; a replay fails with ErrTokenAlreadyUsed.
func (s *AuthService) CompleteReset(ctx context.Context, signed, newPassword string) error {
	claims, err := s.tokens.Verify(signed, token.PurposeReset)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	record, err := s.resets.GetByValue(ctx, signed)
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if record == nil || record.UserID != claims.Subject {
		return ErrTokenExpired
	}
	if record.Used {
		return ErrTokenAlreadyUsed
	}
	if s.now().After(record.ExpiresAt) {
		return ErrTokenExpired
	}

	if reason := password.CheckPolicy(newPassword); reason != "" {
		return fmt.Errorf("%w: %s", ErrWeakPassword, reason)
	}

	u, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return ErrTokenInvalid
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdateCredentials(ctx, u.ID, hash); err != nil {
		return err
	}

	// A completed reset also unlocks the account: the owner has just proven
	// control of the mailbox.
	if u.FailedAttempts > 0 || u.Locked {
		s.tracker.RecordSuccess(u)
		if err := s.users.UpdateLockState(ctx, u); err != nil {
			return fmt.Errorf("persist lock state: %w", err)
		}
	}

	if err := s.resets.MarkUsed(ctx, record.ID); err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.String("user_id", u.ID))
	return nil
}
