package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AccountStore,TokenSigner,AuditPublisher
//go:generate mockgen -source=../store/registry/registry.go -destination=mocks/registry_mock.go -package=mocks Registry

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"meridian/internal/auth/models"
	"meridian/internal/auth/service/mocks"
)

const testPassword = "sup3r-secret"

type ServiceSuite struct {
	suite.Suite
	ctrl               *gomock.Controller
	mockAccounts       *mocks.MockAccountStore
	mockRegistry       *mocks.MockRegistry
	mockSigner         *mocks.MockTokenSigner
	mockAuditPublisher *mocks.MockAuditPublisher
	service            *Service
	now                time.Time
	passwordHash       string
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockAccounts = mocks.NewMockAccountStore(s.ctrl)
	s.mockRegistry = mocks.NewMockRegistry(s.ctrl)
	s.mockSigner = mocks.NewMockTokenSigner(s.ctrl)
	s.mockAuditPublisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s.now = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	s.Require().NoError(err)
	s.passwordHash = string(hash)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   30 * 24 * time.Hour,
		MfaChallengeTTL:   5 * time.Minute,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
	}
	svc, err := New(
		s.mockAccounts,
		s.mockRegistry,
		s.mockSigner,
		cfg,
		WithLogger(logger),
		WithAuditPublisher(s.mockAuditPublisher),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// Shared fixture builders used across the operation test files.

func (s *ServiceSuite) newActiveAccount() *models.Account {
	return &models.Account{
		ID:             uuid.New(),
		Username:       "jmorgan",
		Email:          "jmorgan@example.com",
		PasswordHash:   s.passwordHash,
		Status:         models.AccountStatusActive,
		Roles:          []models.Role{models.RoleAdvisor},
		SessionTimeout: 30 * time.Minute,
		CreatedAt:      s.now.Add(-24 * time.Hour),
		UpdatedAt:      s.now.Add(-24 * time.Hour),
	}
}

func (s *ServiceSuite) newMfaAccount() *models.Account {
	acc := s.newActiveAccount()
	acc.MfaEnabled = true
	acc.MfaSecret = "JBSWY3DPEHPK3PXP"
	return acc
}

func (s *ServiceSuite) expectTokenPair(accountID string) {
	s.mockSigner.EXPECT().
		GenerateAccessToken(gomock.Any(), s.now).
		Return("access-token", "jti-1", nil)
	s.mockSigner.EXPECT().
		GenerateRefreshToken(accountID, s.now).
		Return("refresh-token", nil)
}
