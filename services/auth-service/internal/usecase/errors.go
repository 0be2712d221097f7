package usecase

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by AccountUsecase matches at most one of
// them with errors.Is; anything else is an internal failure.
var (
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
)

var (
	ErrAccountAlreadyExists = fmt.Errorf("%w: account already exists", ErrConflict)
	ErrAccountNotFound      = fmt.Errorf("%w: account not found", ErrNotFound)
	ErrInvalidCredentials   = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInvalidOTP           = fmt.Errorf("%w: invalid or expired otp", ErrUnauthorized)
	ErrOTPAlreadyConsumed   = fmt.Errorf("%w: otp already consumed", ErrUnauthorized)
	ErrInvalidPIN           = fmt.Errorf("%w: invalid login pin", ErrUnauthorized)
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
