package models

import (
	"time"

	"github.com/google/uuid"
)

// This file contains pure domain models for authentication: entities
// that should not depend on transport or HTTP-specific concerns.

// Account represents an administrative user record in the credential store.
// This is a pure domain entity - use AccountSummary for JSON responses.
type Account struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string

	Status AccountStatus
	Roles  []Role

	// Lockout state. FailedAttempts and LockedUntil move together: any
	// reset of the counter must also clear the lock (see ResetLockout).
	FailedAttempts int
	LockedUntil    *time.Time

	MfaEnabled bool
	MfaSecret  string

	SessionTimeout time.Duration
	LastLogin      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanAuthenticate returns true if the account status permits login at all.
// Lockout is a separate, orthogonal condition checked by the lockout policy.
func (a *Account) CanAuthenticate() bool {
	return a.Status == AccountStatusActive
}

// IsLocked reports whether the account is locked out at the given instant.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// ResetLockout zeroes the failure counter and clears the lock timestamp.
// The two fields are never reset independently.
func (a *Account) ResetLockout() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
}

// RecordLogin stamps a fully completed login (post-MFA when applicable).
func (a *Account) RecordLogin(at time.Time) {
	a.LastLogin = &at
}

// RoleNames returns the account's role tags as strings for token claims.
func (a *Account) RoleNames() []string {
	names := make([]string, len(a.Roles))
	for i, r := range a.Roles {
		names[i] = r.String()
	}
	return names
}

// HasPermission reports whether any of the account's roles grants the
// permission. Authorization is a set-membership test over the static
// role→permission table, never a per-account lookup.
func (a *Account) HasPermission(permission string) bool {
	return RolesGrant(a.RoleNames(), permission)
}
