// Package account persists administrative user credentials and lockout
// counters. The credential store owns the schema; this package only reads
// and conditionally writes the fields the auth core needs.
//
// Error Contract:
// All store methods follow this error pattern:
//   - Return ErrNotFound when the requested entity does not exist
//   - Return nil for successful operations
//   - Return wrapped errors with context for infrastructure failures
//
// Concurrency Contract:
// RecordFailedAttempt and ResetFailures mutate the failedAttempts/lockedUntil
// pair atomically per account. Two concurrent failed logins must both land:
// implementations use a single SQL statement (or a mutex for the in-memory
// variant), never read-modify-write across calls.
package account

import "errors"

// ErrNotFound is returned when no account matches the lookup.
var ErrNotFound = errors.New("account not found")

// ErrConflict is returned when a save violates a uniqueness constraint.
var ErrConflict = errors.New("account already exists")
