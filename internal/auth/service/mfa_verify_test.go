package service

import (
	"context"
	"errors"
	"time"

	"github.com/pquerna/otp/totp"
	"go.uber.org/mock/gomock"

	"meridian/internal/auth/models"
	"meridian/internal/auth/store/account"
	"meridian/internal/auth/store/registry"
	dErrors "meridian/pkg/domain-errors"
)

func (s *ServiceSuite) validCode(secret string) string {
	code, err := totp.GenerateCode(secret, s.now)
	s.Require().NoError(err)
	return code
}

func (s *ServiceSuite) TestVerifyMfaSuccess() {
	acc := s.newMfaAccount()

	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_abc").
		Return(acc.ID.String(), nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(acc, nil)
	s.mockAccounts.EXPECT().ResetFailures(gomock.Any(), acc.ID).Return(nil)
	s.mockAccounts.EXPECT().RecordLogin(gomock.Any(), acc.ID, s.now).Return(nil)
	s.expectTokenPair(acc.ID.String())

	result, err := s.service.VerifyMfa(context.Background(), &models.MfaVerifyRequest{
		MfaToken: "mfa_abc",
		Code:     s.validCode(acc.MfaSecret),
	})

	s.Require().NoError(err)
	s.True(result.Success)
	s.False(result.RequiresMfa)
	s.Equal("access-token", result.AccessToken)
	s.Require().NotNil(result.User)
	s.True(result.User.MfaEnabled)
}

func (s *ServiceSuite) TestVerifyMfaChallengeSingleUse() {
	acc := s.newMfaAccount()
	code := s.validCode(acc.MfaSecret)

	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_reuse").
		Return(acc.ID.String(), nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(acc, nil)
	s.mockAccounts.EXPECT().ResetFailures(gomock.Any(), acc.ID).Return(nil)
	s.mockAccounts.EXPECT().RecordLogin(gomock.Any(), acc.ID, s.now).Return(nil)
	s.expectTokenPair(acc.ID.String())

	req := &models.MfaVerifyRequest{MfaToken: "mfa_reuse", Code: code}

	result, err := s.service.VerifyMfa(context.Background(), req)
	s.Require().NoError(err)
	s.True(result.Success)

	// Replaying the same token and code must fail once the challenge is
	// consumed.
	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_reuse").
		Return("", registry.ErrNotFound)

	_, err = s.service.VerifyMfa(context.Background(), req)
	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidChallenge, "")))
}

func (s *ServiceSuite) TestVerifyMfaUnknownChallenge() {
	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_gone").
		Return("", registry.ErrNotFound)

	_, err := s.service.VerifyMfa(context.Background(), &models.MfaVerifyRequest{
		MfaToken: "mfa_gone",
		Code:     "123456",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidChallenge, "")))
}

func (s *ServiceSuite) TestVerifyMfaWrongCodeConsumesChallenge() {
	acc := s.newMfaAccount()

	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_once").
		Return(acc.ID.String(), nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(acc, nil)
	updated := *acc
	updated.FailedAttempts = 1
	s.mockAccounts.EXPECT().
		RecordFailedAttempt(gomock.Any(), acc.ID, 5, s.now.Add(15*time.Minute)).
		Return(&updated, nil)

	_, err := s.service.VerifyMfa(context.Background(), &models.MfaVerifyRequest{
		MfaToken: "mfa_once",
		Code:     "000000",
	})
	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidMfaCode, "")))

	// The consumed challenge cannot be retried, even with a correct code.
	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_once").
		Return("", registry.ErrNotFound)

	_, err = s.service.VerifyMfa(context.Background(), &models.MfaVerifyRequest{
		MfaToken: "mfa_once",
		Code:     s.validCode(acc.MfaSecret),
	})
	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidChallenge, "")))
}

func (s *ServiceSuite) TestVerifyMfaFailuresCountTowardLockout() {
	acc := s.newMfaAccount()
	acc.FailedAttempts = 4

	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_last").
		Return(acc.ID.String(), nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(acc, nil)
	until := s.now.Add(15 * time.Minute)
	updated := *acc
	updated.FailedAttempts = 5
	updated.LockedUntil = &until
	s.mockAccounts.EXPECT().
		RecordFailedAttempt(gomock.Any(), acc.ID, 5, until).
		Return(&updated, nil)

	_, err := s.service.VerifyMfa(context.Background(), &models.MfaVerifyRequest{
		MfaToken: "mfa_last",
		Code:     "000000",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidMfaCode, "")))
}

func (s *ServiceSuite) TestVerifyMfaLockedAccountRejected() {
	acc := s.newMfaAccount()
	until := s.now.Add(10 * time.Minute)
	acc.FailedAttempts = 5
	acc.LockedUntil = &until

	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_locked").
		Return(acc.ID.String(), nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(acc, nil)

	_, err := s.service.VerifyMfa(context.Background(), &models.MfaVerifyRequest{
		MfaToken: "mfa_locked",
		Code:     s.validCode(acc.MfaSecret),
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeAccountLocked, "")))
}

func (s *ServiceSuite) TestVerifyMfaAccountDeletedAfterChallenge() {
	acc := s.newMfaAccount()

	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_orphan").
		Return(acc.ID.String(), nil)
	s.mockAccounts.EXPECT().FindByID(gomock.Any(), acc.ID).Return(nil, account.ErrNotFound)

	_, err := s.service.VerifyMfa(context.Background(), &models.MfaVerifyRequest{
		MfaToken: "mfa_orphan",
		Code:     "123456",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidChallenge, "")))
}

func (s *ServiceSuite) TestVerifyMfaRegistryOutage() {
	s.mockRegistry.EXPECT().
		GetDel(gomock.Any(), registry.KeyPrefixMfa+"mfa_any").
		Return("", errors.New("connection refused"))

	_, err := s.service.VerifyMfa(context.Background(), &models.MfaVerifyRequest{
		MfaToken: "mfa_any",
		Code:     "123456",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeUnavailable, "")))
}
