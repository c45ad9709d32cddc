package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"meridian/internal/audit"
	"meridian/internal/auth/mfa"
	"meridian/internal/auth/models"
	"meridian/internal/auth/store/account"
	"meridian/internal/auth/store/registry"
	dErrors "meridian/pkg/domain-errors"
)

// dummyPasswordHash is compared against when the identifier resolves to no
// account, so unknown identifiers cost a bcrypt verification like wrong
// passwords do.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var errInvalidCredentials = dErrors.New(dErrors.CodeInvalidCredentials, "invalid username or password")

// Login verifies a password credential. Depending on the account it either
// issues a token pair directly or parks the attempt behind an MFA challenge.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	started := s.now()
	result, err := s.login(ctx, req)
	s.observeLoginDuration(float64(s.now().Sub(started).Milliseconds()))
	return result, err
}

func (s *Service) login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	now := s.now()

	acc, err := s.accounts.FindByUsernameOrEmail(ctx, req.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(req.Password))
			s.authFailure(ctx, audit.EventLoginFailed, "unknown_identifier", "")
			s.incrementLoginAttempts("invalid_credentials")
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}

	if !acc.CanAuthenticate() {
		s.authFailure(ctx, audit.EventLoginFailed, "account_not_active", acc.ID.String())
		s.incrementLoginAttempts("invalid_credentials")
		return nil, errInvalidCredentials
	}

	if s.lockout.IsLocked(acc, now) {
		s.authFailure(ctx, audit.EventLoginFailed, "account_locked", acc.ID.String())
		s.incrementLoginAttempts("locked")
		return nil, dErrors.New(dErrors.CodeAccountLocked, "account temporarily locked")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		if ferr := s.registerFailure(ctx, acc, now); ferr != nil {
			return nil, ferr
		}
		s.authFailure(ctx, audit.EventLoginFailed, "wrong_password", acc.ID.String())
		s.incrementLoginAttempts("invalid_credentials")
		return nil, errInvalidCredentials
	}

	// The password is proven at this point, so the failure counter resets
	// before any MFA step. A wrong TOTP code starts counting from zero, not
	// from whatever the password attempts left behind.
	if err := s.accounts.ResetFailures(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}

	if acc.MfaEnabled && acc.MfaSecret != "" {
		return s.issueMfaChallenge(ctx, acc)
	}

	if err := s.accounts.RecordLogin(ctx, acc.ID, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}

	result, err := s.issueTokens(acc, now)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventLoginSucceeded, acc.ID.String(), "username", acc.Username)
	s.logAudit(ctx, audit.EventTokenIssued, acc.ID.String())
	s.incrementLoginAttempts("success")
	s.incrementTokensIssued()
	return result, nil
}

// issueMfaChallenge parks a password-verified attempt behind a single-use
// challenge token.
func (s *Service) issueMfaChallenge(ctx context.Context, acc *models.Account) (*models.LoginResult, error) {
	token, err := mfa.NewChallengeToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint MFA challenge")
	}
	if err := s.registry.SetWithTTL(ctx, registry.KeyPrefixMfa+token, acc.ID.String(), s.cfg.MfaChallengeTTL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "challenge registry unavailable")
	}
	s.logAudit(ctx, audit.EventMfaChallengeIssued, acc.ID.String())
	s.incrementMfaChallengesIssued()
	return &models.LoginResult{
		Success:     true,
		RequiresMfa: true,
		MfaToken:    token,
	}, nil
}

// registerFailure persists one more failed attempt and reports the lockout
// transition when this attempt crossed the threshold. The policy decides
// the threshold and lock expiry; the store applies them atomically.
func (s *Service) registerFailure(ctx context.Context, acc *models.Account, now time.Time) error {
	updated, err := s.accounts.RecordFailedAttempt(ctx, acc.ID, s.lockout.MaxAttempts, now.Add(s.lockout.LockDuration))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}
	if s.lockout.IsLocked(updated, now) && !s.lockout.IsLocked(acc, now) {
		s.logAudit(ctx, audit.EventAccountLocked, acc.ID.String(),
			"failed_attempts", updated.FailedAttempts,
			"locked_until", updated.LockedUntil,
		)
		s.incrementAccountLockouts()
	}
	return nil
}
