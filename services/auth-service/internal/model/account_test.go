package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccount_State(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	code := "123456"
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	tests := []struct {
		name    string
		account Account
		want    AccountState
	}{
		{"pending", Account{}, AccountStatePending},
		{"pending with otp", Account{OTP: &code, OTPExpiresAt: &future}, AccountStatePendingWithOTP},
		{"pending with expired otp", Account{OTP: &code, OTPExpiresAt: &past}, AccountStatePending},
		{"active", Account{Active: true}, AccountStateActive},
		{"active with otp", Account{Active: true, OTP: &code, OTPExpiresAt: &future}, AccountStateActiveWithOTP},
		{"otp without expiry", Account{Active: true, OTP: &code}, AccountStateActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.account.State(now))
		})
	}
}
