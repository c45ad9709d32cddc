package service

import (
	"context"
	"time"

	"meridian/internal/auth/models"
	"meridian/internal/auth/store/registry"
	"meridian/internal/jwttoken"
	dErrors "meridian/pkg/domain-errors"
)

// issueTokens mints a fresh access/refresh pair for a fully authenticated
// account and shapes the login response around it.
func (s *Service) issueTokens(account *models.Account, now time.Time) (*models.LoginResult, error) {
	accessToken, _, err := s.tokens.GenerateAccessToken(jwttoken.AccessTokenParams{
		AccountID:      account.ID.String(),
		Username:       account.Username,
		Email:          account.Email,
		Roles:          account.RoleNames(),
		SessionTimeout: account.SessionTimeout,
		MfaEnabled:     account.MfaEnabled,
	}, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(account.ID.String(), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign refresh token")
	}
	return &models.LoginResult{
		Success:      true,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
		User:         models.NewAccountSummary(account),
	}, nil
}

// revokeToken marks a bearer token unusable until its natural expiry, keyed by
// the raw token and holding the owning subject id. A token already past
// expiresAt needs no registry entry.
func (s *Service) revokeToken(ctx context.Context, token, subject string, expiresAt, now time.Time) error {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return nil
	}
	if err := s.registry.SetWithTTL(ctx, registry.KeyPrefixRevoked+token, subject, remaining); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "revocation registry unavailable")
	}
	s.incrementTokensRevoked()
	return nil
}
