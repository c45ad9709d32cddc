package models

// LoginRequest carries the first-step credentials.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required,notblank,max=255"`
	Password        string `json:"password" validate:"required,min=1,max=128"`
}

// MfaVerifyRequest completes a pending MFA challenge.
type MfaVerifyRequest struct {
	MfaToken string `json:"mfaToken" validate:"required,notblank"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

// RefreshRequest exchanges a live refresh token for fresh tokens.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,notblank"`
}
