package account

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"meridian/internal/auth/models"
)

// InMemoryStore stores accounts in memory for tests and dev runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*models.Account
}

// New constructs an empty in-memory account store.
func New() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[uuid.UUID]*models.Account)}
}

func (s *InMemoryStore) Save(_ context.Context, acc *models.Account) error {
	if acc == nil {
		return fmt.Errorf("account is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.accounts {
		if id != acc.ID && (existing.Username == acc.Username || existing.Email == acc.Email) {
			return fmt.Errorf("save account: %w", ErrConflict)
		}
	}
	clone := *acc
	s.accounts[acc.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc, ok := s.accounts[id]; ok {
		clone := *acc
		return &clone, nil
	}
	return nil, fmt.Errorf("find account by id: %w", ErrNotFound)
}

func (s *InMemoryStore) FindByUsernameOrEmail(_ context.Context, identifier string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.Username == identifier || acc.Email == identifier {
			clone := *acc
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("find account by identifier: %w", ErrNotFound)
}

// RecordFailedAttempt atomically increments the failure counter and, when
// the new count reaches threshold, stamps the lock expiry. Returns the
// account after the mutation.
func (s *InMemoryStore) RecordFailedAttempt(_ context.Context, id uuid.UUID, threshold int, lockUntil time.Time) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("record failed attempt: %w", ErrNotFound)
	}
	acc.FailedAttempts++
	if acc.FailedAttempts >= threshold {
		until := lockUntil
		acc.LockedUntil = &until
	}
	clone := *acc
	return &clone, nil
}

// ResetFailures atomically zeroes the failure counter and clears the lock.
func (s *InMemoryStore) ResetFailures(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("reset failures: %w", ErrNotFound)
	}
	acc.ResetLockout()
	return nil
}

// RecordLogin stamps last_login for a fully completed authentication.
func (s *InMemoryStore) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("record login: %w", ErrNotFound)
	}
	acc.RecordLogin(at)
	return nil
}
