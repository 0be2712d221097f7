package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/pkg/types"
)

// AccountUsecase drives the account lifecycle: signup, activation, password
// and PIN login, and OTP-based password reset.
type AccountUsecase interface {
	// Signup creates an inactive account.
	Signup(ctx context.Context, params SignupParams) (*model.Account, error)

	// RequestVerificationOTP issues a fresh passcode for an inactive account.
	RequestVerificationOTP(ctx context.Context, id Identifier) (*OTPIssue, error)

	// ActivateAccount consumes a verification passcode and activates the account.
	ActivateAccount(ctx context.Context, id Identifier, otp string) (*model.Account, error)

	// RequestPasswordOTP issues a fresh passcode for an active account.
	RequestPasswordOTP(ctx context.Context, id Identifier) (*OTPIssue, error)

	// ResetPassword consumes a passcode and replaces the password.
	ResetPassword(ctx context.Context, params ResetPasswordParams) error

	// Login verifies a password and issues a session token.
	Login(ctx context.Context, params LoginParams) (*authtypes.Tokens, error)

	// PinLogin verifies a login PIN and issues a session token.
	PinLogin(ctx context.Context, params PinLoginParams) (*authtypes.Tokens, error)

	// UpdateProfile patches profile fields of an already authenticated account.
	UpdateProfile(ctx context.Context, accountID string, patch ProfilePatch) (*model.Account, error)

	// GetAccount returns the account with the given ID.
	GetAccount(ctx context.Context, accountID string) (*model.Account, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// OTPGenerator issues and validates one-time passcodes.
type OTPGenerator interface {
	Issue(now time.Time) (string, time.Time, error)
	IsValid(stored, submitted string, expiresAt, now time.Time) bool
}

// TokenIssuer signs session token claims.
type TokenIssuer interface {
	GenerateToken(claims jwt.Claims, secret string) (string, error)
}

// SignupNotifier records the side effect of a new signup.
type SignupNotifier interface {
	AccountSignedUp(ctx context.Context, account *model.Account) error
}

// Identifier locates an account. A non-empty Username takes precedence over Email.
type Identifier struct {
	Email    string
	Username string
}

// SignupParams defines the parameters for account signup.
type SignupParams struct {
	Email        string
	Username     string
	FirstName    string
	LastName     string
	ReferralCode string
	Password     string
}

// ResetPasswordParams defines the parameters for a password reset.
type ResetPasswordParams struct {
	Identifier
	OTP         string
	NewPassword string
}

// LoginParams defines the parameters for password login.
type LoginParams struct {
	Identifier
	Password string
}

// PinLoginParams defines the parameters for PIN login.
type PinLoginParams struct {
	Identifier
	Pin string
}

// ProfilePatch holds the profile fields to change. Nil fields are left as is.
type ProfilePatch struct {
	FirstName    *string
	LastName     *string
	Username     *string
	ReferralCode *string
	LoginPin     *string
}

// OTPIssue is a freshly issued passcode. Delivering it is up to the caller.
type OTPIssue struct {
	Account   *model.Account
	Code      string
	ExpiresAt time.Time
}

// Option configures an AccountUsecase.
type Option func(*accountUsecase)

// WithClock overrides the time source used for passcode expiry and tokens.
func WithClock(now func() time.Time) Option {
	return func(u *accountUsecase) {
		if now != nil {
			u.now = now
		}
	}
}

type accountUsecase struct {
	accountRepo    repository.AccountRepository
	hasher         PasswordHasher
	otpGen         OTPGenerator
	jwtAuth        TokenIssuer
	notifier       SignupNotifier
	authServiceCfg *config.AuthServiceConfig
	logger         *zerolog.Logger
	now            func() time.Time
}

// NewAccountUsecase creates a new instance of AccountUsecase.
func NewAccountUsecase(
	accountRepo repository.AccountRepository,
	hasher PasswordHasher,
	otpGen OTPGenerator,
	jwtAuth TokenIssuer,
	notifier SignupNotifier,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
	opts ...Option,
) AccountUsecase {
	u := &accountUsecase{
		accountRepo:    accountRepo,
		hasher:         hasher,
		otpGen:         otpGen,
		jwtAuth:        jwtAuth,
		notifier:       notifier,
		authServiceCfg: authServiceCfg,
		logger:         logger,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *accountUsecase) Signup(ctx context.Context, params SignupParams) (*model.Account, error) {
	email := normalizeEmail(params.Email)
	username := strings.TrimSpace(params.Username)

	if err := u.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	passwordHash, err := u.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := u.accountRepo.CreateAccount(ctx, &model.Account{
		Email:        email,
		Username:     username,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		ReferralCode: params.ReferralCode,
		PasswordHash: passwordHash,
		Active:       false,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountAlreadyExists) {
			return nil, ErrAccountAlreadyExists
		}
		return nil, unavailable("create account", err)
	}

	// The account exists from here on; a lost notification does not undo it.
	if err := u.notifier.AccountSignedUp(ctx, account); err != nil {
		u.logger.Warn().Err(err).Str("account_id", account.ID.Hex()).Msg("failed to record signup notification")
	}

	return account, nil
}

func (u *accountUsecase) RequestVerificationOTP(ctx context.Context, id Identifier) (*OTPIssue, error) {
	return u.issueOTP(ctx, id, false)
}

func (u *accountUsecase) RequestPasswordOTP(ctx context.Context, id Identifier) (*OTPIssue, error) {
	return u.issueOTP(ctx, id, true)
}

func (u *accountUsecase) ActivateAccount(ctx context.Context, id Identifier, otp string) (*model.Account, error) {
	inactive := false

	account, err := u.findAccount(ctx, id, repository.AccountFilter{Active: &inactive})
	if err != nil {
		return nil, err
	}

	now := u.now()
	challenge, ok := account.PendingOTP()
	if !ok || !u.otpGen.IsValid(challenge.Code, otp, challenge.ExpiresAt, now) {
		return nil, ErrInvalidOTP
	}

	active := true
	activated, err := u.accountRepo.UpdateAccountIf(
		ctx,
		account.ID.Hex(),
		repository.AccountFilter{Active: &inactive, OTP: &challenge.Code, OTPValidAt: &now},
		repository.UpdateAccountParams{Active: &active, ClearOTP: true},
	)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrOTPAlreadyConsumed
		}
		return nil, unavailable("activate account", err)
	}

	return activated, nil
}

func (u *accountUsecase) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	if params.OTP == "" {
		return ErrAccountNotFound
	}

	account, err := u.findAccount(ctx, params.Identifier, repository.AccountFilter{OTP: &params.OTP})
	if err != nil {
		return err
	}

	now := u.now()
	challenge, ok := account.PendingOTP()
	if !ok || !u.otpGen.IsValid(challenge.Code, params.OTP, challenge.ExpiresAt, now) {
		return ErrInvalidOTP
	}

	passwordHash, err := u.hasher.Hash(params.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := u.accountRepo.UpdateAccountIf(
		ctx,
		account.ID.Hex(),
		repository.AccountFilter{OTP: &challenge.Code, OTPValidAt: &now},
		repository.UpdateAccountParams{PasswordHash: &passwordHash, ClearOTP: true},
	); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrOTPAlreadyConsumed
		}
		return unavailable("reset password", err)
	}

	return nil
}

func (u *accountUsecase) Login(ctx context.Context, params LoginParams) (*authtypes.Tokens, error) {
	active := true

	account, err := u.findAccount(ctx, params.Identifier, repository.AccountFilter{Active: &active})
	if err != nil {
		return nil, err
	}

	ok, err := u.hasher.Verify(params.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return u.issueSession(account)
}

func (u *accountUsecase) PinLogin(ctx context.Context, params PinLoginParams) (*authtypes.Tokens, error) {
	if params.Pin == "" {
		return nil, ErrInvalidPIN
	}

	active := true

	account, err := u.findAccount(ctx, params.Identifier, repository.AccountFilter{
		Active:   &active,
		LoginPin: &params.Pin,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidPIN
		}
		return nil, err
	}

	return u.issueSession(account)
}

func (u *accountUsecase) UpdateProfile(
	ctx context.Context,
	accountID string,
	patch ProfilePatch,
) (*model.Account, error) {
	params := repository.UpdateAccountParams{
		FirstName:    patch.FirstName,
		LastName:     patch.LastName,
		Username:     patch.Username,
		ReferralCode: patch.ReferralCode,
		LoginPin:     patch.LoginPin,
	}
	if params.Username != nil {
		username := strings.TrimSpace(*params.Username)
		params.Username = &username
	}

	account, err := u.accountRepo.UpdateAccount(ctx, accountID, params)
	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, repository.ErrNoAccountFields):
		return u.GetAccount(ctx, accountID)
	case errors.Is(err, repository.ErrAccountNotFound):
		return nil, ErrAccountNotFound
	case errors.Is(err, repository.ErrAccountAlreadyExists):
		return nil, ErrAccountAlreadyExists
	default:
		return nil, unavailable("update profile", err)
	}
}

func (u *accountUsecase) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := u.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, unavailable("get account", err)
	}

	return account, nil
}

func (u *accountUsecase) issueOTP(ctx context.Context, id Identifier, active bool) (*OTPIssue, error) {
	account, err := u.findAccount(ctx, id, repository.AccountFilter{Active: &active})
	if err != nil {
		return nil, err
	}

	code, expiresAt, err := u.otpGen.Issue(u.now())
	if err != nil {
		return nil, err
	}

	// Only overwrite the passcode if the account is still in the state we found it in.
	updated, err := u.accountRepo.UpdateAccountIf(
		ctx,
		account.ID.Hex(),
		repository.AccountFilter{Active: &active},
		repository.UpdateAccountParams{OTP: &model.OTPChallenge{Code: code, ExpiresAt: expiresAt}},
	)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, unavailable("store otp", err)
	}

	return &OTPIssue{
		Account:   updated,
		Code:      code,
		ExpiresAt: expiresAt,
	}, nil
}

func (u *accountUsecase) findAccount(
	ctx context.Context,
	id Identifier,
	filter repository.AccountFilter,
) (*model.Account, error) {
	var (
		account *model.Account
		err     error
	)

	switch username, email := strings.TrimSpace(id.Username), normalizeEmail(id.Email); {
	case username != "":
		account, err = u.accountRepo.GetAccountByUsername(ctx, username, filter)
	case email != "":
		account, err = u.accountRepo.GetAccountByEmail(ctx, email, filter)
	default:
		return nil, ErrAccountNotFound
	}

	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, unavailable("find account", err)
	}

	return account, nil
}

func (u *accountUsecase) ensureAvailable(ctx context.Context, email, username string) error {
	_, err := u.accountRepo.GetAccountByEmail(ctx, email, repository.AccountFilter{})
	if err == nil {
		return ErrAccountAlreadyExists
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return unavailable("check email", err)
	}

	if username == "" {
		return nil
	}

	_, err = u.accountRepo.GetAccountByUsername(ctx, username, repository.AccountFilter{})
	if err == nil {
		return ErrAccountAlreadyExists
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return unavailable("check username", err)
	}

	return nil
}

func (u *accountUsecase) issueSession(account *model.Account) (*authtypes.Tokens, error) {
	now := u.now()
	expiresAt := now.Add(u.authServiceCfg.Token.AccessTokenExpiresIn)

	claims := authtypes.JWTClaims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID.Hex(),
			Issuer:    u.authServiceCfg.Token.Issuer,
			Audience:  jwt.ClaimStrings{u.authServiceCfg.Token.Issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := u.jwtAuth.GenerateToken(claims, u.authServiceCfg.Token.AccessTokenSecret)
	if err != nil {
		return nil, unavailable("sign session token", err)
	}

	return &authtypes.Tokens{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
