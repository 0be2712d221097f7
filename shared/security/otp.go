package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const (
	otpMin = 100000
	otpMax = 999999

	// DefaultOTPExpiresIn is the validity window used when none is configured.
	DefaultOTPExpiresIn = 15 * time.Minute
)

// OTPGenerator issues six digit one-time passcodes.
type OTPGenerator struct {
	ExpiresIn time.Duration
}

// NewOTPGenerator creates an OTPGenerator with the given validity window.
func NewOTPGenerator(expiresIn time.Duration) *OTPGenerator {
	if expiresIn <= 0 {
		expiresIn = DefaultOTPExpiresIn
	}

	return &OTPGenerator{ExpiresIn: expiresIn}
}

// Issue draws a code uniformly from [100000, 999999] and stamps its expiry
// relative to now.
func (g *OTPGenerator) Issue(now time.Time) (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate otp: %w", err)
	}

	code := fmt.Sprintf("%06d", n.Int64()+otpMin)

	return code, now.Add(g.ExpiresIn), nil
}

// IsValid reports whether submitted matches stored and now is not past expiresAt.
func (g *OTPGenerator) IsValid(stored, submitted string, expiresAt, now time.Time) bool {
	if stored == "" || submitted == "" {
		return false
	}

	if now.After(expiresAt) {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
