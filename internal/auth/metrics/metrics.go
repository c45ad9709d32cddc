package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for auth operations.
type Metrics struct {
	LoginAttempts        *prometheus.CounterVec
	AccountLockouts      prometheus.Counter
	MfaChallengesIssued  prometheus.Counter
	MfaVerifications     *prometheus.CounterVec
	TokensIssued         prometheus.Counter
	TokensRefreshed      prometheus.Counter
	TokensRevoked        prometheus.Counter
	RevocationCheckFails prometheus.Counter
	LoginDurationMs      prometheus.Histogram
}

// New registers and returns auth metrics collectors.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		AccountLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_account_lockouts_total",
			Help: "Total number of accounts locked after repeated failures",
		}),
		MfaChallengesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_mfa_challenges_issued_total",
			Help: "Total number of MFA challenges issued",
		}),
		MfaVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_mfa_verifications_total",
			Help: "Total number of MFA verification attempts by outcome",
		}, []string{"outcome"}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_tokens_issued_total",
			Help: "Total number of access token pairs issued",
		}),
		TokensRefreshed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_tokens_refreshed_total",
			Help: "Total number of successful token refresh operations",
		}),
		TokensRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_tokens_revoked_total",
			Help: "Total number of tokens added to the revocation registry",
		}),
		RevocationCheckFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_revocation_check_failures_total",
			Help: "Total number of revocation registry read failures (fail-open events)",
		}),
		LoginDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meridian_login_duration_ms",
			Help:    "Duration of login operations in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

func (m *Metrics) IncrementLoginAttempts(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementAccountLockouts() {
	m.AccountLockouts.Inc()
}

func (m *Metrics) IncrementMfaChallengesIssued() {
	m.MfaChallengesIssued.Inc()
}

func (m *Metrics) IncrementMfaVerifications(outcome string) {
	m.MfaVerifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementTokensIssued() {
	m.TokensIssued.Inc()
}

func (m *Metrics) IncrementTokensRefreshed() {
	m.TokensRefreshed.Inc()
}

func (m *Metrics) IncrementTokensRevoked() {
	m.TokensRevoked.Inc()
}

func (m *Metrics) IncrementRevocationCheckFails() {
	m.RevocationCheckFails.Inc()
}

func (m *Metrics) ObserveLoginDuration(durationMs float64) {
	m.LoginDurationMs.Observe(durationMs)
}
