package registry

import (
	"context"
	"sync"
	"time"
)

// InMemoryRegistry is an in-memory Registry for tests and single-node dev
// runs. Production deployments use RedisRegistry for shared state.
type InMemoryRegistry struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   func() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time
}

// NewInMemory constructs an empty in-memory registry.
func NewInMemory() *InMemoryRegistry {
	return &InMemoryRegistry{
		entries: make(map[string]entry),
		clock:   time.Now,
	}
}

// WithClock overrides the clock for deterministic expiry tests.
func (r *InMemoryRegistry) WithClock(clock func() time.Time) *InMemoryRegistry {
	r.clock = clock
	return r
}

func (r *InMemoryRegistry) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = entry{value: value, expiresAt: r.clock().Add(ttl)}
	return nil
}

func (r *InMemoryRegistry) Exists(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return false, nil
	}
	if r.clock().After(e.expiresAt) {
		delete(r.entries, key)
		return false, nil
	}
	return true, nil
}

func (r *InMemoryRegistry) GetDel(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	delete(r.entries, key)
	if r.clock().After(e.expiresAt) {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (r *InMemoryRegistry) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	return nil
}
