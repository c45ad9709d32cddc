package config

import (
	"os"
	"strconv"
	"time"
)

// Auth holds the authentication subsystem configuration. All knobs are
// environment inputs so deployments can tune them without rebuilds.
type Auth struct {
	JWTSigningKey   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string

	MaxFailedAttempts int
	LockoutDuration   time.Duration
	MfaChallengeTTL   time.Duration
}

// Server captures process-level configuration: listen address plus the
// external store endpoints and their call timeouts.
type Server struct {
	Addr string
	Auth Auth

	PostgresURL     string
	PostgresTimeout time.Duration

	RedisURL     string
	RedisTimeout time.Duration
}

const (
	defaultAccessTokenTTL    = time.Hour
	defaultRefreshTokenTTL   = 30 * 24 * time.Hour
	defaultMaxFailedAttempts = 5
	defaultLockoutDuration   = 15 * time.Minute
	defaultMfaChallengeTTL   = 5 * time.Minute
	defaultStoreTimeout      = 300 * time.Millisecond
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("MERIDIAN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "meridian-admin"
	}

	return Server{
		Addr: addr,
		Auth: Auth{
			JWTSigningKey:     jwtSigningKey,
			AccessTokenTTL:    durationFromEnv("ACCESS_TOKEN_TTL", defaultAccessTokenTTL),
			RefreshTokenTTL:   durationFromEnv("REFRESH_TOKEN_TTL", defaultRefreshTokenTTL),
			Issuer:            issuer,
			MaxFailedAttempts: intFromEnv("MAX_FAILED_ATTEMPTS", defaultMaxFailedAttempts),
			LockoutDuration:   durationFromEnv("LOCKOUT_DURATION", defaultLockoutDuration),
			MfaChallengeTTL:   durationFromEnv("MFA_CHALLENGE_TTL", defaultMfaChallengeTTL),
		},
		PostgresURL:     os.Getenv("POSTGRES_URL"),
		PostgresTimeout: durationFromEnv("POSTGRES_TIMEOUT", defaultStoreTimeout),
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisTimeout:    durationFromEnv("REDIS_TIMEOUT", defaultStoreTimeout),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
