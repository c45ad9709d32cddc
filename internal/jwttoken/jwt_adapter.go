package jwttoken

import (
	"time"

	"meridian/internal/platform/middleware"
)

// ToPrincipal maps verified access token claims to the middleware principal.
func ToPrincipal(claims *AccessTokenClaims) *middleware.Principal {
	return &middleware.Principal{
		AccountID:      claims.Subject,
		Username:       claims.Username,
		Email:          claims.Email,
		Roles:          claims.Roles,
		SessionTimeout: time.Duration(claims.SessionTimeoutSeconds) * time.Second,
		MfaEnabled:     claims.MfaEnabled,
	}
}

// ServiceAdapter exposes the token service through the middleware's
// TokenVerifier interface.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) VerifyAccessToken(tokenString string) (*middleware.Principal, error) {
	claims, err := a.service.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToPrincipal(claims), nil
}
