// Package lockout holds the bounded-attempt policy applied to login
// failures. The policy is pure: callers supply the clock, so outcomes are
// deterministic and the same inputs always produce the same account state.
package lockout

import (
	"time"

	"meridian/internal/auth/models"
)

// Policy holds the configured thresholds. Both values come from
// configuration, never hard-coded call sites.
type Policy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// RecordFailure increments the failure counter and, when the counter
// reaches the threshold, sets the lock expiry. The mutation happens on the
// passed account; persisting it is the caller's job.
//
// An account whose previous lock has lapsed keeps its stale counter: the
// next failure that reaches the threshold re-locks. This mirrors standard
// lockout semantics and is relied upon by tests.
func (p Policy) RecordFailure(account *models.Account, now time.Time) {
	account.FailedAttempts++
	if account.FailedAttempts >= p.MaxAttempts {
		until := now.Add(p.LockDuration)
		account.LockedUntil = &until
	}
}

// RecordSuccess zeroes the counter and clears the lock in one step.
func (p Policy) RecordSuccess(account *models.Account) {
	account.ResetLockout()
}

// IsLocked reports whether the account is locked at the given instant. An
// account past its lock expiry is unlocked even if the counter was never
// reset by a successful login.
func (p Policy) IsLocked(account *models.Account, now time.Time) bool {
	return account.IsLocked(now)
}
