package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/auth"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/middleware"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/validator"
)

// OTPNotifier hands issued passcodes over for delivery.
type OTPNotifier interface {
	VerificationOTPIssued(ctx context.Context, account *model.Account, code string, expiresAt time.Time) error
	PasswordOTPIssued(ctx context.Context, account *model.Account, code string, expiresAt time.Time) error
}

// AccountHTTPHandler binds AccountUsecase to HTTP.
type AccountHTTPHandler struct {
	accountUsecase   usecase.AccountUsecase
	notifier         OTPNotifier
	requestValidator *validator.Validator
	jwtAuth          auth.JWTAuthenticator
	authServiceCfg   *config.AuthServiceConfig
	logger           *zerolog.Logger
}

// NewAccountHTTPHandler creates a new AccountHTTPHandler.
func NewAccountHTTPHandler(
	accountUsecase usecase.AccountUsecase,
	notifier OTPNotifier,
	requestValidator *validator.Validator,
	jwtAuth auth.JWTAuthenticator,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) *AccountHTTPHandler {
	return &AccountHTTPHandler{
		accountUsecase:   accountUsecase,
		notifier:         notifier,
		requestValidator: requestValidator,
		jwtAuth:          jwtAuth,
		authServiceCfg:   authServiceCfg,
		logger:           logger,
	}
}

func (h *AccountHTTPHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	account, err := h.accountUsecase.Signup(ctx, usecase.SignupParams{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ReferralCode: req.ReferralCode,
		Password:     req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.NewAccountResponse(account))
}

func (h *AccountHTTPHandler) RequestVerificationOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.OTPRequest
	if !h.decode(w, r, &req) || !h.identified(w, req.Identifier) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	issue, err := h.accountUsecase.RequestVerificationOTP(ctx, toIdentifier(req.Identifier))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.notifier.VerificationOTPIssued(ctx, issue.Account, issue.Code, issue.ExpiresAt); err != nil {
		h.writeError(w, r, deliveryFailed(err))
		return
	}

	writeJSON(w, http.StatusAccepted, payload.OTPRequestedResponse{ExpiresAt: issue.ExpiresAt})
}

func (h *AccountHTTPHandler) ActivateAccount(w http.ResponseWriter, r *http.Request) {
	var req payload.ActivateRequest
	if !h.decode(w, r, &req) || !h.identified(w, req.Identifier) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	account, err := h.accountUsecase.ActivateAccount(ctx, toIdentifier(req.Identifier), req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewAccountResponse(account))
}

func (h *AccountHTTPHandler) RequestPasswordOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.OTPRequest
	if !h.decode(w, r, &req) || !h.identified(w, req.Identifier) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	issue, err := h.accountUsecase.RequestPasswordOTP(ctx, toIdentifier(req.Identifier))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.notifier.PasswordOTPIssued(ctx, issue.Account, issue.Code, issue.ExpiresAt); err != nil {
		h.writeError(w, r, deliveryFailed(err))
		return
	}

	writeJSON(w, http.StatusAccepted, payload.OTPRequestedResponse{ExpiresAt: issue.ExpiresAt})
}

func (h *AccountHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.PasswordResetRequest
	if !h.decode(w, r, &req) || !h.identified(w, req.Identifier) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	err := h.accountUsecase.ResetPassword(ctx, usecase.ResetPasswordParams{
		Identifier:  toIdentifier(req.Identifier),
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "password updated"})
}

func (h *AccountHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decode(w, r, &req) || !h.identified(w, req.Identifier) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	tokens, err := h.accountUsecase.Login(ctx, usecase.LoginParams{
		Identifier: toIdentifier(req.Identifier),
		Password:   req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.TokenResponse(*tokens))
}

func (h *AccountHTTPHandler) PinLogin(w http.ResponseWriter, r *http.Request) {
	var req payload.PinLoginRequest
	if !h.decode(w, r, &req) || !h.identified(w, req.Identifier) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	tokens, err := h.accountUsecase.PinLogin(ctx, usecase.PinLoginParams{
		Identifier: toIdentifier(req.Identifier),
		Pin:        req.Pin,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.TokenResponse(*tokens))
}

func (h *AccountHTTPHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromRequest(r)
	if !ok {
		h.unauthorized(w, r, errMissingSubject)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	account, err := h.accountUsecase.GetAccount(ctx, accountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewAccountResponse(account))
}

func (h *AccountHTTPHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromRequest(r)
	if !ok {
		h.unauthorized(w, r, errMissingSubject)
		return
	}

	var req payload.UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	account, err := h.accountUsecase.UpdateProfile(ctx, accountID, usecase.ProfilePatch{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		ReferralCode: req.ReferralCode,
		LoginPin:     req.LoginPin,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewAccountResponse(account))
}

func (h *AccountHTTPHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "ok"})
}

// requestContext bounds the store calls of a single request.
func (h *AccountHTTPHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if timeout := h.authServiceCfg.Mongo.QueryTimeout; timeout > 0 {
		return context.WithTimeout(r.Context(), timeout)
	}

	return context.WithCancel(r.Context())
}

func accountIDFromRequest(r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", false
	}

	return subject, true
}

func toIdentifier(id payload.Identifier) usecase.Identifier {
	return usecase.Identifier{
		Email:    id.Email,
		Username: id.Username,
	}
}

func deliveryFailed(err error) error {
	return fmt.Errorf("%w: failed to queue passcode delivery: %w", usecase.ErrUnavailable, err)
}
