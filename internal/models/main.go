// Package models defines the core data structures for users and reset tokens.
package models

import "time"

// User represents a platform account with its credential and failure state.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Email is the address the user signs in with.
	Email string `json:"email"`
	// PasswordHash is the encoded "hash.salt" credential record.
	PasswordHash string `json:"-"`
	// FailedAttempts counts consecutive failed login attempts.
	FailedAttempts int `json:"-"`
	// LastFailedAt is the time of the most recent failed attempt, if any.
	LastFailedAt *time.Time `json:"-"`
	// Locked reports whether the account is currently locked out.
	Locked bool `json:"-"`
	// LockedUntil is when the lockout expires. Set whenever Locked is true.
	LockedUntil *time.Time `json:"-"`
	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"createdAt"`
}

// ResetToken is the persisted single-use record backing a signed reset token.
type ResetToken struct {
	// ID is the unique identifier for the record.
	ID string
	// UserID is the account the token was issued for.
	UserID string
	// Token is the raw signed token value as handed to the user.
	Token string
	// IssuedAt is when the token was minted.
	IssuedAt time.Time
	// ExpiresAt is when the token stops being redeemable.
	ExpiresAt time.Time
	// Used marks the record as already redeemed.
	Used bool
}
