package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AccountState is the lifecycle state derived from the active flag and the
// outstanding one-time passcode.
type AccountState string

const (
	AccountStatePending        AccountState = "pending"
	AccountStatePendingWithOTP AccountState = "pending_with_otp"
	AccountStateActive         AccountState = "active"
	AccountStateActiveWithOTP  AccountState = "active_with_otp"
)

// Account represents one registered identity.
type Account struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	Username     string        `bson:"username,omitempty"`
	FirstName    string        `bson:"first_name"`
	LastName     string        `bson:"last_name"`
	ReferralCode string        `bson:"referral_code,omitempty"`
	PasswordHash string        `bson:"password_hash"`
	Active       bool          `bson:"active"`
	OTP          *string       `bson:"otp,omitempty"`
	OTPExpiresAt *time.Time    `bson:"otp_expires_at,omitempty"`
	LoginPin     string        `bson:"login_pin,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

// OTPChallenge is an issued passcode and its expiry. Both are always written
// to an account together.
type OTPChallenge struct {
	Code      string
	ExpiresAt time.Time
}

// PendingOTP returns the outstanding challenge, if any.
func (a *Account) PendingOTP() (OTPChallenge, bool) {
	if a.OTP == nil || a.OTPExpiresAt == nil {
		return OTPChallenge{}, false
	}

	return OTPChallenge{Code: *a.OTP, ExpiresAt: *a.OTPExpiresAt}, true
}

// State derives the lifecycle state at now. An expired passcode counts as absent.
func (a *Account) State(now time.Time) AccountState {
	challenge, ok := a.PendingOTP()
	hasOTP := ok && !now.After(challenge.ExpiresAt)

	switch {
	case a.Active && hasOTP:
		return AccountStateActiveWithOTP
	case a.Active:
		return AccountStateActive
	case hasOTP:
		return AccountStatePendingWithOTP
	default:
		return AccountStatePending
	}
}
