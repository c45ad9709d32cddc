package service

import (
	"context"

	"meridian/internal/audit"
	"meridian/internal/platform/middleware"
)

// Observability helpers for logging, auditing, and metrics.
// These methods are on *Service to access logger, auditPublisher, and metrics.

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, accountID string, attributes ...any) {
	requestID := middleware.GetRequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "account_id", accountID, "log_type", "audit")
	s.logger.InfoContext(ctx, string(event), args...)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		AccountID: accountID,
		Subject:   accountID,
		Action:    string(event),
		Decision:  "allow",
		RemoteIP:  middleware.GetClientAddr(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
}

// authFailure records a denied attempt in the log, the audit trail, and the
// login outcome metric. accountID may be empty when the identifier did not
// resolve to an account.
func (s *Service) authFailure(ctx context.Context, event audit.AuditEvent, reason, accountID string, attributes ...any) {
	requestID := middleware.GetRequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "reason", reason, "account_id", accountID, "log_type", "standard")
	s.logger.WarnContext(ctx, string(event), args...)

	if s.auditPublisher != nil {
		if err := s.auditPublisher.Emit(ctx, audit.Event{
			AccountID: accountID,
			Subject:   accountID,
			Action:    string(event),
			Decision:  "denied",
			Reason:    reason,
			RemoteIP:  middleware.GetClientAddr(ctx),
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to emit auth failure audit event", "error", err)
		}
	}
}

func (s *Service) incrementLoginAttempts(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementLoginAttempts(outcome)
	}
}

func (s *Service) incrementAccountLockouts() {
	if s.metrics != nil {
		s.metrics.IncrementAccountLockouts()
	}
}

func (s *Service) incrementMfaChallengesIssued() {
	if s.metrics != nil {
		s.metrics.IncrementMfaChallengesIssued()
	}
}

func (s *Service) incrementMfaVerifications(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementMfaVerifications(outcome)
	}
}

func (s *Service) incrementTokensIssued() {
	if s.metrics != nil {
		s.metrics.IncrementTokensIssued()
	}
}

func (s *Service) incrementTokensRefreshed() {
	if s.metrics != nil {
		s.metrics.IncrementTokensRefreshed()
	}
}

func (s *Service) incrementTokensRevoked() {
	if s.metrics != nil {
		s.metrics.IncrementTokensRevoked()
	}
}

func (s *Service) incrementRevocationCheckFails() {
	if s.metrics != nil {
		s.metrics.IncrementRevocationCheckFails()
	}
}

func (s *Service) observeLoginDuration(durationMs float64) {
	if s.metrics != nil {
		s.metrics.ObserveLoginDuration(durationMs)
	}
}
