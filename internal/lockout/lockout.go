// Package lockout implements the per-account login throttling state machine.
//
// An account is either open or locked. Ten consecutive failures lock it for
// thirty minutes; both the lock and a stale failure counter are cleared
// lazily on the next attempt. All transitions mutate the user's failure
// fields in place; persisting the mutation is the caller's job.
package lockout

import (
	"fmt"
	"time"

	"github.com/obelenko/lurelab/internal/models"
)

// Config holds the tunable thresholds of the tracker.
type Config struct {
	// Threshold is the number of consecutive failures that locks the account.
	Threshold int
	// LockDuration is how long a lock lasts once triggered.
	LockDuration time.Duration
	// ResetWindow is how long a nonzero failure counter survives without a
	// further failure before it decays to zero.
	ResetWindow time.Duration
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		Threshold:    10,
		LockDuration: 30 * time.Minute,
		ResetWindow:  24 * time.Hour,
	}
}

// Decision is the outcome of a pre-authentication check.
type Decision struct {
	// Allowed reports whether the attempt may proceed to credential
	// verification.
	Allowed bool
	// Reason holds the human-readable lockout message when Allowed is false.
	Reason string
	// Dirty reports whether the check mutated the user's failure state
	// (expired lock cleared or stale counter decayed) and the caller must
	// persist it.
	Dirty bool
}

// Tracker evaluates and mutates a user's failure state.
type Tracker struct {
	cfg Config
}

// New constructs a Tracker with the given config. Zero or negative values
// fall back to the defaults.
func New(cfg Config) *Tracker {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = def.LockDuration
	}
	if cfg.ResetWindow <= 0 {
		cfg.ResetWindow = def.ResetWindow
	}
	return &Tracker{cfg: cfg}
}

// Threshold returns the configured failure threshold.
func (t *Tracker) Threshold() int {
	return t.cfg.Threshold
}

// Check must be called before credential verification. It lazily performs
// the LOCKED→OPEN transition once the lock window has elapsed and decays a
// stale failure counter, then reports whether the attempt may proceed.
func (t *Tracker) Check(u *models.User, now time.Time) Decision {
	dirty := false

	if u.Locked {
		if u.LockedUntil != nil && now.Before(*u.LockedUntil) {
			return Decision{Allowed: false, Reason: lockMessage(*u.LockedUntil, now)}
		}
		// Lock window elapsed: clear everything and evaluate fresh.
		clearFailureState(u)
		dirty = true
	}

	if u.FailedAttempts > 0 && u.LastFailedAt != nil &&
		now.Sub(*u.LastFailedAt) > t.cfg.ResetWindow {
		clearFailureState(u)
		dirty = true
	}

	return Decision{Allowed: true, Dirty: dirty}
}

// RecordFailure registers a failed verification. It returns true when this
// call pushed the account over the threshold and locked it, so the caller
// can emit a "now locked" message instead of an attempts-remaining one.
func (t *Tracker) RecordFailure(u *models.User, now time.Time) bool {
	u.FailedAttempts++
	failedAt := now
	u.LastFailedAt = &failedAt

	if u.FailedAttempts >= t.cfg.Threshold {
		until := now.Add(t.cfg.LockDuration)
		u.Locked = true
		u.LockedUntil = &until
		return true
	}
	return false
}

// RecordSuccess unconditionally resets the failure state after a
// successful authentication.
func (t *Tracker) RecordSuccess(u *models.User) {
	clearFailureState(u)
}

// Remaining returns how many more failures the account tolerates before
// locking. Never negative.
func (t *Tracker) Remaining(u *models.User) int {
	if n := t.cfg.Threshold - u.FailedAttempts; n > 0 {
		return n
	}
	return 0
}

// LockMessage renders the human-readable reason for a locked account.
func (t *Tracker) LockMessage(u *models.User, now time.Time) string {
	if u.LockedUntil == nil {
		return "account is locked"
	}
	return lockMessage(*u.LockedUntil, now)
}

func lockMessage(until, now time.Time) string {
	left := int(until.Sub(now).Round(time.Minute).Minutes())
	if left <= 1 {
		return "account is locked, try again in 1 minute"
	}
	return fmt.Sprintf("account is locked, try again in %d minutes", left)
}

func clearFailureState(u *models.User) {
	u.FailedAttempts = 0
	u.LastFailedAt = nil
	u.Locked = false
	u.LockedUntil = nil
}
