package payload

import "time"

// Identifier selects an account by username or, when username is empty, by email.
type Identifier struct {
	Email    string `json:"email,omitempty"    validate:"omitempty,email"`
	Username string `json:"username,omitempty" validate:"omitempty,max=64"`
}

// IsEmpty reports whether neither email nor username was given.
func (i Identifier) IsEmpty() bool {
	return i.Email == "" && i.Username == ""
}

type SignupRequest struct {
	Email        string `json:"email"                   validate:"required,email"`
	Username     string `json:"username,omitempty"      validate:"omitempty,min=3,max=64"`
	FirstName    string `json:"first_name"              validate:"required,max=100"`
	LastName     string `json:"last_name"               validate:"max=100"`
	ReferralCode string `json:"referral_code,omitempty" validate:"omitempty,max=64"`
	Password     string `json:"password"                validate:"required,min=8,max=128"`
}

type OTPRequest struct {
	Identifier
}

type OTPRequestedResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type ActivateRequest struct {
	Identifier
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

type PasswordResetRequest struct {
	Identifier
	OTP         string `json:"otp"          validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Identifier
	Password string `json:"password" validate:"required"`
}

type PinLoginRequest struct {
	Identifier
	Pin string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
