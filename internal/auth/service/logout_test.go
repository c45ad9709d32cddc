package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/mock/gomock"

	"meridian/internal/auth/store/registry"
	"meridian/internal/jwttoken"
	dErrors "meridian/pkg/domain-errors"
)

func (s *ServiceSuite) accessClaims(accountID string, expiresIn time.Duration) *jwttoken.AccessTokenClaims {
	return &jwttoken.AccessTokenClaims{
		TokenUse: jwttoken.TokenUseAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(s.now.Add(expiresIn)),
		},
	}
}

func (s *ServiceSuite) TestLogoutRevokesBothTokens() {
	acc := s.newActiveAccount()

	s.mockSigner.EXPECT().
		VerifyAccessToken("access-token").
		Return(s.accessClaims(acc.ID.String(), 45*time.Minute), nil)
	s.mockRegistry.EXPECT().
		SetWithTTL(gomock.Any(), registry.KeyPrefixRevoked+"access-token", acc.ID.String(), 45*time.Minute).
		Return(nil)
	s.mockSigner.EXPECT().
		VerifyRefreshToken("refresh-token").
		Return(s.refreshClaims(acc.ID.String(), 24*time.Hour), nil)
	s.mockRegistry.EXPECT().
		SetWithTTL(gomock.Any(), registry.KeyPrefixRevoked+"refresh-token", acc.ID.String(), 24*time.Hour).
		Return(nil)

	result, err := s.service.Logout(context.Background(), "access-token", "refresh-token")

	s.Require().NoError(err)
	s.True(result.Success)
}

func (s *ServiceSuite) TestLogoutInvalidTokenIsNoOp() {
	s.mockSigner.EXPECT().
		VerifyAccessToken("garbage").
		Return(nil, dErrors.New(dErrors.CodeTokenInvalid, "token is not valid"))

	result, err := s.service.Logout(context.Background(), "garbage", "")

	s.Require().NoError(err)
	s.True(result.Success)
}

func (s *ServiceSuite) TestLogoutExpiredTokenSkipsRegistry() {
	// Verification failed on expiry, nothing to revoke.
	s.mockSigner.EXPECT().
		VerifyAccessToken("expired-token").
		Return(nil, dErrors.New(dErrors.CodeTokenExpired, "token expired"))

	result, err := s.service.Logout(context.Background(), "expired-token", "")

	s.Require().NoError(err)
	s.True(result.Success)
}

func (s *ServiceSuite) TestLogoutAccessTokenOnly() {
	acc := s.newActiveAccount()

	s.mockSigner.EXPECT().
		VerifyAccessToken("access-token").
		Return(s.accessClaims(acc.ID.String(), time.Hour), nil)
	s.mockRegistry.EXPECT().
		SetWithTTL(gomock.Any(), registry.KeyPrefixRevoked+"access-token", acc.ID.String(), time.Hour).
		Return(nil)

	result, err := s.service.Logout(context.Background(), "access-token", "")

	s.Require().NoError(err)
	s.True(result.Success)
}

func (s *ServiceSuite) TestLogoutRegistryOutageSurfaces() {
	acc := s.newActiveAccount()

	s.mockSigner.EXPECT().
		VerifyAccessToken("access-token").
		Return(s.accessClaims(acc.ID.String(), time.Hour), nil)
	s.mockRegistry.EXPECT().
		SetWithTTL(gomock.Any(), registry.KeyPrefixRevoked+"access-token", acc.ID.String(), time.Hour).
		Return(dErrors.New(dErrors.CodeUnavailable, "connection refused"))

	_, err := s.service.Logout(context.Background(), "access-token", "")

	s.Require().Error(err)
}
