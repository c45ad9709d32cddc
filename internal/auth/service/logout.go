package service

import (
	"context"

	"meridian/internal/audit"
	"meridian/internal/auth/models"
)

// Logout revokes the presented tokens for the remainder of their lifetimes.
// An unverifiable token needs no registry entry since it can never pass
// verification again, so logout reports success either way.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) (*models.LogoutResult, error) {
	now := s.now()
	accountID := ""

	if accessToken != "" {
		claims, err := s.tokens.VerifyAccessToken(accessToken)
		if err == nil {
			accountID = claims.Subject
			if claims.ExpiresAt != nil {
				if rerr := s.revokeToken(ctx, accessToken, claims.Subject, claims.ExpiresAt.Time, now); rerr != nil {
					return nil, rerr
				}
			}
		}
	}

	if refreshToken != "" {
		claims, err := s.tokens.VerifyRefreshToken(refreshToken)
		if err == nil {
			if accountID == "" {
				accountID = claims.Subject
			}
			if claims.ExpiresAt != nil {
				if rerr := s.revokeToken(ctx, refreshToken, claims.Subject, claims.ExpiresAt.Time, now); rerr != nil {
					return nil, rerr
				}
			}
		}
	}

	if accountID != "" {
		s.logAudit(ctx, audit.EventLogout, accountID)
	}

	return &models.LogoutResult{
		Success: true,
		Message: "logged out",
	}, nil
}
