package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/mock/gomock"

	"meridian/internal/auth/models"
	"meridian/internal/auth/store/account"
	"meridian/internal/auth/store/registry"
	"meridian/internal/jwttoken"
	dErrors "meridian/pkg/domain-errors"
)

func (s *ServiceSuite) refreshClaims(accountID string, expiresIn time.Duration) *jwttoken.RefreshTokenClaims {
	return &jwttoken.RefreshTokenClaims{
		TokenUse: jwttoken.TokenUseRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(s.now.Add(expiresIn)),
		},
	}
}

func (s *ServiceSuite) TestRefreshRotatesTokenPair() {
	acc := s.newActiveAccount()

	s.mockSigner.EXPECT().
		VerifyRefreshToken("old-refresh").
		Return(s.refreshClaims(acc.ID.String(), 24*time.Hour), nil)
	s.mockRegistry.EXPECT().
		Exists(gomock.Any(), registry.KeyPrefixRevoked+"old-refresh").
		Return(false, nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(acc, nil)
	s.expectTokenPair(acc.ID.String())
	// The consumed refresh token is revoked for its remaining lifetime.
	s.mockRegistry.EXPECT().
		SetWithTTL(gomock.Any(), registry.KeyPrefixRevoked+"old-refresh", acc.ID.String(), 24*time.Hour).
		Return(nil)

	result, err := s.service.Refresh(context.Background(), &models.RefreshRequest{
		RefreshToken: "old-refresh",
	})

	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal("access-token", result.AccessToken)
	s.Equal("refresh-token", result.RefreshToken)
}

func (s *ServiceSuite) TestRefreshRejectsRevokedToken() {
	acc := s.newActiveAccount()

	s.mockSigner.EXPECT().
		VerifyRefreshToken("used-refresh").
		Return(s.refreshClaims(acc.ID.String(), 24*time.Hour), nil)
	s.mockRegistry.EXPECT().
		Exists(gomock.Any(), registry.KeyPrefixRevoked+"used-refresh").
		Return(true, nil)

	_, err := s.service.Refresh(context.Background(), &models.RefreshRequest{
		RefreshToken: "used-refresh",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeTokenInvalid, "")))
}

func (s *ServiceSuite) TestRefreshRejectsInvalidToken() {
	s.mockSigner.EXPECT().
		VerifyRefreshToken("garbage").
		Return(nil, dErrors.New(dErrors.CodeTokenInvalid, "token is not valid"))

	_, err := s.service.Refresh(context.Background(), &models.RefreshRequest{
		RefreshToken: "garbage",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeTokenInvalid, "")))
}

func (s *ServiceSuite) TestRefreshFailsOpenOnRegistryOutage() {
	acc := s.newActiveAccount()

	s.mockSigner.EXPECT().
		VerifyRefreshToken("old-refresh").
		Return(s.refreshClaims(acc.ID.String(), 24*time.Hour), nil)
	s.mockRegistry.EXPECT().
		Exists(gomock.Any(), registry.KeyPrefixRevoked+"old-refresh").
		Return(false, errors.New("connection refused"))
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(acc, nil)
	s.expectTokenPair(acc.ID.String())
	s.mockRegistry.EXPECT().
		SetWithTTL(gomock.Any(), registry.KeyPrefixRevoked+"old-refresh", acc.ID.String(), 24*time.Hour).
		Return(nil)

	result, err := s.service.Refresh(context.Background(), &models.RefreshRequest{
		RefreshToken: "old-refresh",
	})

	s.Require().NoError(err)
	s.True(result.Success)
}

func (s *ServiceSuite) TestRefreshLockedAccountRejected() {
	acc := s.newActiveAccount()
	until := s.now.Add(10 * time.Minute)
	acc.FailedAttempts = 5
	acc.LockedUntil = &until

	s.mockSigner.EXPECT().
		VerifyRefreshToken("old-refresh").
		Return(s.refreshClaims(acc.ID.String(), 24*time.Hour), nil)
	s.mockRegistry.EXPECT().
		Exists(gomock.Any(), registry.KeyPrefixRevoked+"old-refresh").
		Return(false, nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(acc, nil)

	_, err := s.service.Refresh(context.Background(), &models.RefreshRequest{
		RefreshToken: "old-refresh",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeAccountLocked, "")))
}

func (s *ServiceSuite) TestRefreshDeletedAccountRejected() {
	acc := s.newActiveAccount()

	s.mockSigner.EXPECT().
		VerifyRefreshToken("old-refresh").
		Return(s.refreshClaims(acc.ID.String(), 24*time.Hour), nil)
	s.mockRegistry.EXPECT().
		Exists(gomock.Any(), registry.KeyPrefixRevoked+"old-refresh").
		Return(false, nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(nil, account.ErrNotFound)

	_, err := s.service.Refresh(context.Background(), &models.RefreshRequest{
		RefreshToken: "old-refresh",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeTokenInvalid, "")))
}
