package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	AccountID string
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RemoteIP  string
}

type AuditEvent string

const (
	EventLoginSucceeded     AuditEvent = "login_succeeded"
	EventLoginFailed        AuditEvent = "login_failed"
	EventAccountLocked      AuditEvent = "account_locked"
	EventMfaChallengeIssued AuditEvent = "mfa_challenge_issued"
	EventMfaVerified        AuditEvent = "mfa_verified"
	EventMfaFailed          AuditEvent = "mfa_failed"
	EventTokenIssued        AuditEvent = "token_issued"
	EventTokenRefreshed     AuditEvent = "token_refreshed"
	EventLogout             AuditEvent = "logout"
)
