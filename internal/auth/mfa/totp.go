// Package mfa implements the second-step verification primitives: TOTP code
// checks against an account's shared secret, and the opaque challenge tokens
// that bridge a password success to the pending code entry.
package mfa

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// ChallengeTokenPrefix marks pending-MFA challenge tokens so they are
	// recognizable in logs and registry keys without being guessable.
	ChallengeTokenPrefix = "mfa_"

	challengeTokenBytes = 20 // 160 bits of entropy
)

// VerifyCode checks a 6-digit TOTP code against the base32 shared secret at
// the given instant. Standard parameters: SHA1, 30-second step, one step of
// tolerance either side to absorb clock drift.
func VerifyCode(secret, code string, now time.Time) bool {
	if secret == "" || code == "" {
		return false
	}
	valid, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}

// NewChallengeToken mints an opaque random challenge token. The token is a
// pure reference: all state lives in the revocation registry entry keyed by it.
func NewChallengeToken() (string, error) {
	randomBytes := make([]byte, challengeTokenBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate challenge token: %w", err)
	}
	return ChallengeTokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}
