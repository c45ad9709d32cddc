package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/mock/gomock"

	"meridian/internal/audit"
	"meridian/internal/auth/models"
	"meridian/internal/auth/store/account"
	"meridian/internal/auth/store/registry"
	"meridian/internal/platform/middleware"
	dErrors "meridian/pkg/domain-errors"
)

// captureAuditPublisher records emitted events for assertions.
type captureAuditPublisher struct {
	events []audit.Event
}

func (c *captureAuditPublisher) Emit(_ context.Context, e audit.Event) error {
	c.events = append(c.events, e)
	return nil
}

func (s *ServiceSuite) TestLoginSuccessWithoutMfa() {
	acc := s.newActiveAccount()

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)
	s.mockAccounts.EXPECT().ResetFailures(gomock.Any(), acc.ID).Return(nil)
	s.mockAccounts.EXPECT().RecordLogin(gomock.Any(), acc.ID, s.now).Return(nil)
	s.expectTokenPair(acc.ID.String())

	result, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        testPassword,
	})

	s.Require().NoError(err)
	s.True(result.Success)
	s.False(result.RequiresMfa)
	s.Equal("access-token", result.AccessToken)
	s.Equal("refresh-token", result.RefreshToken)
	s.Equal("Bearer", result.TokenType)
	s.Equal(3600, result.ExpiresIn)
	s.Require().NotNil(result.User)
	s.Equal("jmorgan", result.User.Username)
	s.Equal([]string{"advisor"}, result.User.Roles)
}

func (s *ServiceSuite) TestLoginUnknownIdentifier() {
	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "nobody").
		Return(nil, account.ErrNotFound)

	result, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "nobody",
		Password:        "whatever",
	})

	s.Nil(result)
	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidCredentials, "")))
}

func (s *ServiceSuite) TestLoginWrongPasswordSameErrorAsUnknown() {
	acc := s.newActiveAccount()

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)
	updated := *acc
	updated.FailedAttempts = 1
	s.mockAccounts.EXPECT().
		RecordFailedAttempt(gomock.Any(), acc.ID, 5, s.now.Add(15*time.Minute)).
		Return(&updated, nil)

	_, wrongPassErr := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        "not-the-password",
	})

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "ghost").
		Return(nil, account.ErrNotFound)
	_, unknownErr := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "ghost",
		Password:        "not-the-password",
	})

	s.Require().Error(wrongPassErr)
	s.Require().Error(unknownErr)
	s.Equal(wrongPassErr.Error(), unknownErr.Error())
}

func (s *ServiceSuite) TestLoginInactiveAccountRejected() {
	acc := s.newActiveAccount()
	acc.Status = models.AccountStatusSuspended

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)

	_, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        testPassword,
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidCredentials, "")))
}

func (s *ServiceSuite) TestLoginLockedAccountRejectedEvenWithCorrectPassword() {
	acc := s.newActiveAccount()
	until := s.now.Add(10 * time.Minute)
	acc.FailedAttempts = 5
	acc.LockedUntil = &until

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)

	_, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        testPassword,
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeAccountLocked, "")))
}

func (s *ServiceSuite) TestLoginLockExpiryAllowsLogin() {
	acc := s.newActiveAccount()
	until := s.now.Add(-time.Minute)
	acc.FailedAttempts = 5
	acc.LockedUntil = &until

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)
	s.mockAccounts.EXPECT().ResetFailures(gomock.Any(), acc.ID).Return(nil)
	s.mockAccounts.EXPECT().RecordLogin(gomock.Any(), acc.ID, s.now).Return(nil)
	s.expectTokenPair(acc.ID.String())

	result, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        testPassword,
	})

	s.Require().NoError(err)
	s.True(result.Success)
}

func (s *ServiceSuite) TestLoginFailurePersistsAttempt() {
	acc := s.newActiveAccount()
	acc.FailedAttempts = 3

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)
	updated := *acc
	updated.FailedAttempts = 4
	s.mockAccounts.EXPECT().
		RecordFailedAttempt(gomock.Any(), acc.ID, 5, s.now.Add(15*time.Minute)).
		Return(&updated, nil)

	_, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        "bad",
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidCredentials, "")))
}

func (s *ServiceSuite) TestLoginFifthFailureLocksAccount() {
	acc := s.newActiveAccount()
	acc.FailedAttempts = 4

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)
	until := s.now.Add(15 * time.Minute)
	updated := *acc
	updated.FailedAttempts = 5
	updated.LockedUntil = &until
	s.mockAccounts.EXPECT().
		RecordFailedAttempt(gomock.Any(), acc.ID, 5, until).
		Return(&updated, nil)

	_, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        "bad",
	})

	// The attempt that triggers the lock still reports invalid credentials;
	// the lock surfaces on the next attempt.
	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeInvalidCredentials, "")))
}

func (s *ServiceSuite) TestLoginMfaAccountGetsChallenge() {
	acc := s.newMfaAccount()

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)
	s.mockAccounts.EXPECT().ResetFailures(gomock.Any(), acc.ID).Return(nil)

	var storedKey string
	s.mockRegistry.EXPECT().
		SetWithTTL(gomock.Any(), gomock.Any(), acc.ID.String(), 5*time.Minute).
		DoAndReturn(func(_ context.Context, key, _ string, _ time.Duration) error {
			storedKey = key
			return nil
		})

	result, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        testPassword,
	})

	s.Require().NoError(err)
	s.True(result.Success)
	s.True(result.RequiresMfa)
	s.NotEmpty(result.MfaToken)
	s.Empty(result.AccessToken)
	s.Empty(result.RefreshToken)
	s.Equal(registry.KeyPrefixMfa+result.MfaToken, storedKey)
	s.True(strings.HasPrefix(result.MfaToken, "mfa_"))
}

func (s *ServiceSuite) TestLoginCorrectPasswordResetsCounterBeforeMfa() {
	// A proven password clears earlier failed attempts before the MFA step,
	// so a single wrong code afterwards cannot lock the account.
	acc := s.newMfaAccount()
	acc.FailedAttempts = 4

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(acc, nil)
	reset := s.mockAccounts.EXPECT().ResetFailures(gomock.Any(), acc.ID).Return(nil)
	s.mockRegistry.EXPECT().
		SetWithTTL(gomock.Any(), gomock.Any(), acc.ID.String(), 5*time.Minute).
		Return(nil).
		After(reset)

	result, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        testPassword,
	})

	s.Require().NoError(err)
	s.True(result.RequiresMfa)
}

func (s *ServiceSuite) TestLoginFailureAuditRecordsClientAddr() {
	capture := &captureAuditPublisher{}
	svc, err := New(
		s.mockAccounts,
		s.mockRegistry,
		s.mockSigner,
		Config{
			AccessTokenTTL:    time.Hour,
			RefreshTokenTTL:   30 * 24 * time.Hour,
			MfaChallengeTTL:   5 * time.Minute,
			MaxFailedAttempts: 5,
			LockoutDuration:   15 * time.Minute,
		},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(capture),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "ghost").
		Return(nil, account.ErrNotFound)

	ctx := middleware.WithClientAddr(context.Background(), "203.0.113.7")
	_, err = svc.Login(ctx, &models.LoginRequest{
		UsernameOrEmail: "ghost",
		Password:        "whatever",
	})
	s.Require().Error(err)

	s.Require().Len(capture.events, 1)
	s.Equal(string(audit.EventLoginFailed), capture.events[0].Action)
	s.Equal("denied", capture.events[0].Decision)
	s.Equal("203.0.113.7", capture.events[0].RemoteIP)
}

func (s *ServiceSuite) TestLoginStoreOutageReportsUnavailable() {
	s.mockAccounts.EXPECT().
		FindByUsernameOrEmail(gomock.Any(), "jmorgan").
		Return(nil, errors.New("connection refused"))

	_, err := s.service.Login(context.Background(), &models.LoginRequest{
		UsernameOrEmail: "jmorgan",
		Password:        testPassword,
	})

	s.Require().Error(err)
	s.True(errors.Is(err, dErrors.New(dErrors.CodeUnavailable, "")))
}
