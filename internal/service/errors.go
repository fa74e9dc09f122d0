package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the account-security operations. The HTTP layer maps
// these to statuses with errors.Is; anything else is an internal error and
// must never reach the client verbatim.
var (
	// ErrInvalidCredentials merges "unknown email" and "wrong password" so
	// responses never reveal which field was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked marks attempts rejected by the lockout tracker.
	ErrAccountLocked = errors.New("account locked")
	// ErrTokenInvalid covers bad signatures, wrong purpose, and malformed input.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrTokenExpired covers lapsed tokens and absent/lapsed persisted records.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenAlreadyUsed marks a redemption replay of a single-use token.
	ErrTokenAlreadyUsed = errors.New("token already used")
	// ErrWeakPassword marks a new secret that fails the complexity policy.
	ErrWeakPassword = errors.New("password too weak")
	// ErrEmailTaken marks a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// LockedError carries the human-readable lockout message. It matches
// ErrAccountLocked under errors.Is.
type LockedError struct {
	// Reason is the remaining-lockout message shown to the user verbatim.
	Reason string
	// LockedNow is true when the attempt that produced this error is the
	// one that locked the account.
	LockedNow bool
}

func (e *LockedError) Error() string { return e.Reason }

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// AttemptsRemainingError reports a failed verification along with how many
// attempts remain before lockout. It matches ErrInvalidCredentials under
// errors.Is.
type AttemptsRemainingError struct {
	Remaining int
}

func (e *AttemptsRemainingError) Error() string {
	return fmt.Sprintf("invalid email or password, %d attempts remaining", e.Remaining)
}

func (e *AttemptsRemainingError) Unwrap() error { return ErrInvalidCredentials }
