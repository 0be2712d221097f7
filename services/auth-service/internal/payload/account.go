package payload

import (
	"time"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
)

// UpdateProfileRequest patches profile fields. Omitted fields stay unchanged.
type UpdateProfileRequest struct {
	FirstName    *string `json:"first_name,omitempty"    validate:"omitempty,max=100"`
	LastName     *string `json:"last_name,omitempty"     validate:"omitempty,max=100"`
	Username     *string `json:"username,omitempty"      validate:"omitempty,min=3,max=64"`
	ReferralCode *string `json:"referral_code,omitempty" validate:"omitempty,max=64"`
	LoginPin     *string `json:"login_pin,omitempty"     validate:"omitempty,numeric,min=4,max=8"`
}

// AccountResponse is the public view of an account. Credentials and pending
// passcodes are never exposed.
type AccountResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ReferralCode string    `json:"referral_code,omitempty"`
	Active       bool      `json:"active"`
	HasLoginPin  bool      `json:"has_login_pin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewAccountResponse(account *model.Account) AccountResponse {
	return AccountResponse{
		ID:           account.ID.Hex(),
		Email:        account.Email,
		Username:     account.Username,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		ReferralCode: account.ReferralCode,
		Active:       account.Active,
		HasLoginPin:  account.LoginPin != "",
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}
}
