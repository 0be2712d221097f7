package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/validator"
)

const maxBodyBytes = 1 << 20

var errMissingSubject = errors.New("token has no subject")

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (h *AccountHTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{Error: "invalid request body"})
		return false
	}

	if err := h.requestValidator.Struct(dst); err != nil {
		h.writeError(w, r, err)
		return false
	}

	return true
}

func (h *AccountHTTPHandler) identified(w http.ResponseWriter, id payload.Identifier) bool {
	if !id.IsEmpty() {
		return true
	}

	writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
		Error:  "validation failed",
		Fields: map[string]string{"email": "email or username is required"},
	})

	return false
}

func (h *AccountHTTPHandler) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Debug().
		Err(err).
		Str("request_id", chimiddleware.GetReqID(r.Context())).
		Msg("rejected unauthenticated request")

	writeJSON(w, http.StatusUnauthorized, payload.ErrorResponse{Error: "invalid or missing access token"})
}

func (h *AccountHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
			Error:  "validation failed",
			Fields: validationErr.Fields,
		})
		return
	}

	status, message := errorStatus(err)

	event := h.logger.Debug()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.
		Err(err).
		Str("request_id", chimiddleware.GetReqID(r.Context())).
		Int("status", status).
		Msg("request failed")

	writeJSON(w, status, payload.ErrorResponse{Error: message})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrAccountAlreadyExists):
		return http.StatusConflict, "account already exists"
	case errors.Is(err, usecase.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, usecase.ErrInvalidOTP), errors.Is(err, usecase.ErrOTPAlreadyConsumed):
		return http.StatusUnauthorized, "invalid or expired otp"
	case errors.Is(err, usecase.ErrInvalidPIN):
		return http.StatusUnauthorized, "invalid login pin"
	case errors.Is(err, usecase.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, usecase.ErrUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "something went wrong"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
