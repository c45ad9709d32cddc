package models

// This file contains transport-layer response models for JSON output.
// These are shaped for API responses and should avoid domain behavior.

// LoginResult is the response payload for /auth/login, /auth/mfa/verify and
// /auth/refresh. A password-only success and an MFA-required outcome share
// the shape; RequiresMfa distinguishes them.
type LoginResult struct {
	Success      bool            `json:"success"`
	RequiresMfa  bool            `json:"requiresMfa,omitempty"`
	MfaToken     string          `json:"mfaToken,omitempty"`
	AccessToken  string          `json:"accessToken,omitempty"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	TokenType    string          `json:"tokenType,omitempty"`
	ExpiresIn    int             `json:"expiresIn,omitempty"` // seconds until access token expiry
	User         *AccountSummary `json:"user,omitempty"`
}

// AccountSummary is the user block embedded in login responses.
type AccountSummary struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	MfaEnabled bool     `json:"mfaEnabled"`
}

// LogoutResult is the response payload for /auth/logout. Logout always
// reports success, whether or not the presented token was still usable.
type LogoutResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewAccountSummary maps a domain account to its response form.
func NewAccountSummary(account *Account) *AccountSummary {
	return &AccountSummary{
		ID:         account.ID.String(),
		Username:   account.Username,
		Email:      account.Email,
		Roles:      account.RoleNames(),
		MfaEnabled: account.MfaEnabled,
	}
}
