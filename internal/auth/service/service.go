package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"meridian/internal/audit"
	"meridian/internal/auth/lockout"
	"meridian/internal/auth/metrics"
	"meridian/internal/auth/models"
	"meridian/internal/auth/store/registry"
	"meridian/internal/jwttoken"
	dErrors "meridian/pkg/domain-errors"
)

// AccountStore defines the persistence interface for account credentials and
// lockout state.
// Error Contract: All Find methods return store.ErrNotFound when the entity doesn't exist.
type AccountStore interface {
	Save(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.Account, error)
	RecordFailedAttempt(ctx context.Context, id uuid.UUID, threshold int, lockUntil time.Time) (*models.Account, error)
	ResetFailures(ctx context.Context, id uuid.UUID) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TokenSigner mints and verifies the signed tokens the service hands out.
type TokenSigner interface {
	GenerateAccessToken(p jwttoken.AccessTokenParams, now time.Time) (token string, jti string, err error)
	GenerateRefreshToken(accountID string, now time.Time) (string, error)
	VerifyAccessToken(token string) (*jwttoken.AccessTokenClaims, error)
	VerifyRefreshToken(token string) (*jwttoken.RefreshTokenClaims, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Config carries the token and lockout tunables.
type Config struct {
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	MfaChallengeTTL   time.Duration
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

const (
	defaultAccessTokenTTL    = time.Hour
	defaultRefreshTokenTTL   = 30 * 24 * time.Hour
	defaultMfaChallengeTTL   = 5 * time.Minute
	defaultMaxFailedAttempts = 5
	defaultLockoutDuration   = 15 * time.Minute
)

type Service struct {
	accounts       AccountStore
	registry       registry.Registry
	tokens         TokenSigner
	lockout        lockout.Policy
	cfg            Config
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source. Tests use this to pin lockout and
// expiry arithmetic.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(accounts AccountStore, reg registry.Registry, tokens TokenSigner, cfg Config, opts ...Option) (*Service, error) {
	if accounts == nil || reg == nil || tokens == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "service requires account store, registry, and token signer")
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if cfg.MfaChallengeTTL <= 0 {
		cfg.MfaChallengeTTL = defaultMfaChallengeTTL
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = defaultMaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaultLockoutDuration
	}
	svc := &Service{
		accounts: accounts,
		registry: reg,
		tokens:   tokens,
		cfg:      cfg,
		lockout: lockout.Policy{
			MaxAttempts:  cfg.MaxFailedAttempts,
			LockDuration: cfg.LockoutDuration,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}
