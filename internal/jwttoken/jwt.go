package jwttoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "meridian/pkg/domain-errors"
)

// Token use discriminators. A refresh token must never authenticate a
// request, so every verification path checks this claim.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// AccessTokenClaims represents the JWT claims for our access tokens.
// The claims schema is strict: every session attribute the middleware needs
// is an explicit field, never a loose map lookup.
type AccessTokenClaims struct {
	Username              string   `json:"username"`
	Email                 string   `json:"email"`
	Roles                 []string `json:"roles"`
	SessionTimeoutSeconds int64    `json:"session_timeout"`
	MfaEnabled            bool     `json:"mfa_enabled"`
	TokenUse              string   `json:"token_use"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims carries the minimal claim set for refresh tokens:
// subject plus the token_use discriminator.
type RefreshTokenClaims struct {
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// AccessTokenParams bundles the account attributes encoded into an access token.
type AccessTokenParams struct {
	AccountID      string
	Username       string
	Email          string
	Roles          []string
	SessionTimeout time.Duration
	MfaEnabled     bool
}

// Service signs and verifies bearer tokens. The keyring is loaded once at
// startup and holds a single active key today; the kid header on issued
// tokens keeps room for versioned rotation later.
type Service struct {
	keys       map[string][]byte
	activeKid  string
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(signingKey string, issuer string, accessTTL, refreshTTL time.Duration) *Service {
	const kid = "v1"
	return &Service{
		keys:       map[string][]byte{kid: []byte(signingKey)},
		activeKid:  kid,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// GenerateAccessToken mints a signed access token and returns it with its JTI.
func (s *Service) GenerateAccessToken(p AccessTokenParams, now time.Time) (string, string, error) {
	if p.AccountID == "" {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "account id cannot be empty")
	}

	jti, err := newJTI()
	if err != nil {
		return "", "", err
	}

	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		Username:              p.Username,
		Email:                 p.Email,
		Roles:                 p.Roles,
		SessionTimeoutSeconds: int64(p.SessionTimeout.Seconds()),
		MfaEnabled:            p.MfaEnabled,
		TokenUse:              TokenUseAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.AccountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        jti,
		},
	})
	newToken.Header["kid"] = s.activeKid

	signedToken, err := newToken.SignedString(s.keys[s.activeKid])
	if err != nil {
		return "", "", err
	}
	return signedToken, jti, nil
}

// GenerateRefreshToken mints a signed refresh token for the given account.
func (s *Service) GenerateRefreshToken(accountID string, now time.Time) (string, error) {
	if accountID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account id cannot be empty")
	}

	jti, err := newJTI()
	if err != nil {
		return "", err
	}

	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshTokenClaims{
		TokenUse: TokenUseRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        jti,
		},
	})
	newToken.Header["kid"] = s.activeKid

	signedToken, err := newToken.SignedString(s.keys[s.activeKid])
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// VerifyAccessToken validates signature, expiry, issuer and token use.
func (s *Service) VerifyAccessToken(tokenString string) (*AccessTokenClaims, error) {
	claims := new(AccessTokenClaims)
	if err := s.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseAccess {
		return nil, dErrors.New(dErrors.CodeTokenInvalid, "not an access token")
	}
	return claims, nil
}

// VerifyRefreshToken validates signature, expiry, issuer and token use.
func (s *Service) VerifyRefreshToken(tokenString string) (*RefreshTokenClaims, error) {
	claims := new(RefreshTokenClaims)
	if err := s.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseRefresh {
		return nil, dErrors.New(dErrors.CodeTokenInvalid, "not a refresh token")
	}
	return claims, nil
}

func (s *Service) verify(tokenString string, claims jwt.Claims) error {
	if tokenString == "" {
		return dErrors.New(dErrors.CodeTokenInvalid, "empty token")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		key := s.keys[s.activeKid]
		if kid, ok := token.Header["kid"].(string); ok {
			if k, ok := s.keys[kid]; ok {
				key = k
			}
		}
		return key, nil
	},
		jwt.WithIssuer(s.issuer),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeTokenExpired, "token expired")
		}
		return dErrors.New(dErrors.CodeTokenInvalid, "invalid token")
	}

	if !parsed.Valid {
		return dErrors.New(dErrors.CodeTokenInvalid, "invalid token")
	}

	return nil
}

func newJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
