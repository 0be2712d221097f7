package repository

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
)

type accountMemoryRepository struct {
	mu       sync.Mutex
	accounts map[bson.ObjectID]*model.Account
}

// NewAccountMemoryRepository creates an in-process AccountRepository with the
// same uniqueness and compare-and-update guarantees as the MongoDB one.
func NewAccountMemoryRepository() AccountRepository {
	return &accountMemoryRepository{
		accounts: make(map[bson.ObjectID]*model.Account),
	}
}

func (r *accountMemoryRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(bson.NilObjectID, account.Email, account.Username) {
		return nil, ErrAccountAlreadyExists
	}

	now := time.Now()
	account.ID = bson.NewObjectID()
	account.CreatedAt = now
	account.UpdatedAt = now

	r.accounts[account.ID] = cloneAccount(account)

	return account, nil
}

func (r *accountMemoryRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[objectID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	return cloneAccount(account), nil
}

func (r *accountMemoryRepository) GetAccountByEmail(
	ctx context.Context,
	email string,
	filter AccountFilter,
) (*model.Account, error) {
	return r.find(ctx, filter, func(a *model.Account) bool { return a.Email == email })
}

func (r *accountMemoryRepository) GetAccountByUsername(
	ctx context.Context,
	username string,
	filter AccountFilter,
) (*model.Account, error) {
	if username == "" {
		return nil, ErrAccountNotFound
	}

	return r.find(ctx, filter, func(a *model.Account) bool { return a.Username == username })
}

func (r *accountMemoryRepository) UpdateAccount(
	ctx context.Context,
	id string,
	params UpdateAccountParams,
) (*model.Account, error) {
	return r.UpdateAccountIf(ctx, id, AccountFilter{}, params)
}

func (r *accountMemoryRepository) UpdateAccountIf(
	ctx context.Context,
	id string,
	filter AccountFilter,
	params UpdateAccountParams,
) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := params.validate(); err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.accounts[objectID]
	if !ok || !matches(current, filter) {
		return nil, ErrAccountNotFound
	}

	updated := cloneAccount(current)
	applyUpdate(updated, params, time.Now())

	if r.taken(objectID, updated.Email, updated.Username) {
		return nil, ErrAccountAlreadyExists
	}

	r.accounts[objectID] = updated

	return cloneAccount(updated), nil
}

func (r *accountMemoryRepository) find(
	ctx context.Context,
	filter AccountFilter,
	identity func(*model.Account) bool,
) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if identity(account) && matches(account, filter) {
			return cloneAccount(account), nil
		}
	}

	return nil, ErrAccountNotFound
}

// taken reports whether another account already owns email or username.
func (r *accountMemoryRepository) taken(self bson.ObjectID, email, username string) bool {
	for id, account := range r.accounts {
		if id == self {
			continue
		}
		if account.Email == email {
			return true
		}
		if username != "" && account.Username == username {
			return true
		}
	}

	return false
}

func matches(account *model.Account, filter AccountFilter) bool {
	if filter.Active != nil && account.Active != *filter.Active {
		return false
	}
	if filter.OTP != nil && (account.OTP == nil || *account.OTP != *filter.OTP) {
		return false
	}
	if filter.LoginPin != nil && account.LoginPin != *filter.LoginPin {
		return false
	}
	if filter.OTPValidAt != nil && (account.OTPExpiresAt == nil || account.OTPExpiresAt.Before(*filter.OTPValidAt)) {
		return false
	}

	return true
}

func applyUpdate(account *model.Account, params UpdateAccountParams, now time.Time) {
	if params.FirstName != nil {
		account.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		account.LastName = *params.LastName
	}
	if params.Username != nil {
		account.Username = *params.Username
	}
	if params.ReferralCode != nil {
		account.ReferralCode = *params.ReferralCode
	}
	if params.LoginPin != nil {
		account.LoginPin = *params.LoginPin
	}
	if params.PasswordHash != nil {
		account.PasswordHash = *params.PasswordHash
	}
	if params.Active != nil {
		account.Active = *params.Active
	}
	if params.OTP != nil {
		code, expiresAt := params.OTP.Code, params.OTP.ExpiresAt
		account.OTP = &code
		account.OTPExpiresAt = &expiresAt
	}
	if params.ClearOTP {
		account.OTP = nil
		account.OTPExpiresAt = nil
	}

	account.UpdatedAt = now
}

func cloneAccount(account *model.Account) *model.Account {
	clone := *account
	if account.OTP != nil {
		code := *account.OTP
		clone.OTP = &code
	}
	if account.OTPExpiresAt != nil {
		expiresAt := *account.OTPExpiresAt
		clone.OTPExpiresAt = &expiresAt
	}

	return &clone
}
