package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"meridian/internal/audit"
	"meridian/internal/auth/models"
	"meridian/internal/auth/store/account"
	"meridian/internal/auth/store/registry"
	dErrors "meridian/pkg/domain-errors"
)

var errRefreshInvalid = dErrors.New(dErrors.CodeTokenInvalid, "refresh token is not valid")

// Refresh rotates a refresh token into a fresh access/refresh pair. The
// presented refresh token is revoked for its remaining lifetime, so each one
// is good for a single rotation.
func (s *Service) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.LoginResult, error) {
	now := s.now()

	claims, err := s.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		s.authFailure(ctx, audit.EventLoginFailed, "refresh_token_rejected", "")
		return nil, err
	}

	revoked, err := s.registry.Exists(ctx, registry.KeyPrefixRevoked+req.RefreshToken)
	if err != nil {
		// Fail open: a registry outage must not sign everyone out.
		s.logger.WarnContext(ctx, "revocation check failed, proceeding",
			"error", err,
			"account_id", claims.Subject,
		)
		s.incrementRevocationCheckFails()
	} else if revoked {
		s.authFailure(ctx, audit.EventLoginFailed, "refresh_token_revoked", claims.Subject)
		return nil, errRefreshInvalid
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errRefreshInvalid
	}
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.authFailure(ctx, audit.EventLoginFailed, "refresh_account_gone", claims.Subject)
			return nil, errRefreshInvalid
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unavailable")
	}
	if !acc.CanAuthenticate() {
		s.authFailure(ctx, audit.EventLoginFailed, "account_not_active", acc.ID.String())
		return nil, errRefreshInvalid
	}
	if s.lockout.IsLocked(acc, now) {
		s.authFailure(ctx, audit.EventLoginFailed, "account_locked", acc.ID.String())
		return nil, dErrors.New(dErrors.CodeAccountLocked, "account temporarily locked")
	}

	result, err := s.issueTokens(acc, now)
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt != nil {
		if err := s.revokeToken(ctx, req.RefreshToken, claims.Subject, claims.ExpiresAt.Time, now); err != nil {
			return nil, err
		}
	}

	s.logAudit(ctx, audit.EventTokenRefreshed, acc.ID.String())
	s.incrementTokensRefreshed()
	s.incrementTokensIssued()
	return result, nil
}
