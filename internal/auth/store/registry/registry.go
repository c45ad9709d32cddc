// Package registry provides the TTL-expiring shared store backing token
// revocation and pending-MFA challenges. Entries vanish when their TTL
// lapses; a lookup miss is indistinguishable from never-written.
package registry

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by GetDel when the key is absent or expired.
var ErrNotFound = errors.New("registry entry not found")

// Key prefixes. Revoked bearer tokens and pending MFA challenges share the
// registry but never collide.
const (
	KeyPrefixRevoked = "revoked:"
	KeyPrefixMfa     = "mfa:"
)

// Registry is the TTL key/value contract the auth service depends on.
//
// SetWithTTL and GetDel must be atomic: GetDel is how a pending MFA
// challenge is consumed exactly once even under concurrent verification
// attempts.
type Registry interface {
	// SetWithTTL records a value under key, expiring after ttl.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Exists reports whether key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// GetDel atomically reads and removes key. Returns ErrNotFound on a miss.
	GetDel(ctx context.Context, key string) (string, error)

	// Delete removes key if present. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
