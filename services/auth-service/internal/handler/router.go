package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vasapolrittideah/account-lifecycle-api/shared/middleware"
)

// HealthPath is the liveness endpoint, also used as the Consul check.
const HealthPath = "/healthz"

// Routes builds the HTTP router of the auth service.
func (h *AccountHTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRequestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get(HealthPath, h.Healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Signup)
			r.Post("/verification-otp", h.RequestVerificationOTP)
			r.Post("/activate", h.ActivateAccount)
			r.Post("/password-otp", h.RequestPasswordOTP)
			r.Post("/password-reset", h.ResetPassword)
			r.Post("/login", h.Login)
			r.Post("/pin-login", h.PinLogin)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Use(middleware.NewJWTMiddleware(h.jwtAuth, h.authServiceCfg.Token.AccessTokenSecret, h.unauthorized))

			r.Get("/me", h.GetMe)
			r.Patch("/me", h.UpdateMe)
		})
	})

	return r
}
