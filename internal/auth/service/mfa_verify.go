package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"meridian/internal/audit"
	"meridian/internal/auth/mfa"
	"meridian/internal/auth/models"
	"meridian/internal/auth/store/account"
	"meridian/internal/auth/store/registry"
	dErrors "meridian/pkg/domain-errors"
)

var errInvalidChallenge = dErrors.New(dErrors.CodeInvalidChallenge, "invalid or expired MFA challenge")

// VerifyMfa completes the second authentication step. The challenge is
// consumed before the code is checked, so every challenge token is usable
// exactly once whatever the outcome.
func (s *Service) VerifyMfa(ctx context.Context, req *models.MfaVerifyRequest) (*models.LoginResult, error) {
	now := s.now()

	accountID, err := s.registry.GetDel(ctx, registry.KeyPrefixMfa+req.MfaToken)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.authFailure(ctx, audit.EventMfaFailed, "unknown_challenge", "")
			s.incrementMfaVerifications("invalid_challenge")
			return nil, errInvalidChallenge
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "challenge registry unavailable")
	}

	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, errInvalidChallenge
	}
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.authFailure(ctx, audit.EventMfaFailed, "account_gone", accountID)
			s.incrementMfaVerifications("invalid_challenge")
			return nil, errInvalidChallenge
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}

	if !acc.CanAuthenticate() {
		s.authFailure(ctx, audit.EventMfaFailed, "account_not_active", acc.ID.String())
		s.incrementMfaVerifications("invalid_challenge")
		return nil, errInvalidChallenge
	}
	if s.lockout.IsLocked(acc, now) {
		s.authFailure(ctx, audit.EventMfaFailed, "account_locked", acc.ID.String())
		s.incrementMfaVerifications("locked")
		return nil, dErrors.New(dErrors.CodeAccountLocked, "account temporarily locked")
	}

	if !mfa.VerifyCode(acc.MfaSecret, req.Code, now) {
		// Wrong codes count toward the same lockout budget as wrong passwords.
		if ferr := s.registerFailure(ctx, acc, now); ferr != nil {
			return nil, ferr
		}
		s.authFailure(ctx, audit.EventMfaFailed, "wrong_code", acc.ID.String())
		s.incrementMfaVerifications("invalid_code")
		return nil, dErrors.New(dErrors.CodeInvalidMfaCode, "invalid MFA code")
	}

	if err := s.accounts.ResetFailures(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}
	if err := s.accounts.RecordLogin(ctx, acc.ID, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}

	result, err := s.issueTokens(acc, now)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventMfaVerified, acc.ID.String())
	s.logAudit(ctx, audit.EventTokenIssued, acc.ID.String())
	s.incrementMfaVerifications("success")
	s.incrementTokensIssued()
	return result, nil
}
