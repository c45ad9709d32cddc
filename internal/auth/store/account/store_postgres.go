package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"meridian/internal/auth/models"
)

// PostgresStore persists accounts in PostgreSQL.
// This store is pure I/O; password checks and lockout decisions belong in
// the service and policy layers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `
	id, username, email, password_hash, status, roles,
	failed_attempts, locked_until, mfa_enabled, mfa_secret,
	session_timeout_seconds, last_login, created_at, updated_at
`

func (s *PostgresStore) Save(ctx context.Context, acc *models.Account) error {
	if acc == nil {
		return fmt.Errorf("account is required")
	}
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			status = EXCLUDED.status,
			roles = EXCLUDED.roles,
			mfa_enabled = EXCLUDED.mfa_enabled,
			mfa_secret = EXCLUDED.mfa_secret,
			session_timeout_seconds = EXCLUDED.session_timeout_seconds,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		acc.ID,
		acc.Username,
		acc.Email,
		acc.PasswordHash,
		string(acc.Status),
		rolesToText(acc.Roles),
		acc.FailedAttempts,
		acc.LockedUntil,
		acc.MfaEnabled,
		acc.MfaSecret,
		int64(acc.SessionTimeout.Seconds()),
		acc.LastLogin,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("save account: %w", ErrConflict)
		}
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find account by id: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return acc, nil
}

func (s *PostgresStore) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1 OR email = $1`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find account by identifier: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find account by identifier: %w", err)
	}
	return acc, nil
}

// RecordFailedAttempt increments the failure counter and conditionally sets
// locked_until in a single statement, so concurrent failures cannot lose an
// increment and the counter/lock pair moves atomically.
func (s *PostgresStore) RecordFailedAttempt(ctx context.Context, id uuid.UUID, threshold int, lockUntil time.Time) (*models.Account, error) {
	query := `
		UPDATE accounts SET
			failed_attempts = failed_attempts + 1,
			locked_until = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, id, threshold, lockUntil))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record failed attempt: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("record failed attempt: %w", err)
	}
	return acc, nil
}

// ResetFailures zeroes the counter and clears the lock in one statement,
// preserving the invariant that the two fields reset together.
func (s *PostgresStore) ResetFailures(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE accounts SET
			failed_attempts = 0,
			locked_until = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("reset failures: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("reset failures: %w", ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET last_login = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record login: %w", ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		acc            models.Account
		status         string
		roles          string
		timeoutSeconds int64
	)
	err := row.Scan(
		&acc.ID,
		&acc.Username,
		&acc.Email,
		&acc.PasswordHash,
		&status,
		&roles,
		&acc.FailedAttempts,
		&acc.LockedUntil,
		&acc.MfaEnabled,
		&acc.MfaSecret,
		&timeoutSeconds,
		&acc.LastLogin,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc.Status = models.AccountStatus(status)
	acc.Roles = rolesFromText(roles)
	acc.SessionTimeout = time.Duration(timeoutSeconds) * time.Second
	return &acc, nil
}

// Roles are stored as a comma-separated text column; the set is small and
// the role→permission expansion never touches the database.
func rolesToText(roles []models.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ",")
}

func rolesFromText(raw string) []models.Role {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	roles := make([]models.Role, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, models.Role(p))
		}
	}
	return roles
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
