package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/account-lifecycle-api/shared/auth"
)

type contextKey struct{}

var claimsKey = contextKey{}

var (
	errMissingAuthHeader = errors.New("missing authorization header")
	errInvalidAuthHeader = errors.New("invalid authorization header format")
)

// UnauthorizedFunc writes the response for a request that failed authentication.
type UnauthorizedFunc func(w http.ResponseWriter, r *http.Request, err error)

// NewJWTMiddleware authenticates requests carrying a bearer token and stores
// the validated claims in the request context.
func NewJWTMiddleware(
	jwtAuth auth.JWTAuthenticator,
	secret string,
	onUnauthorized UnauthorizedFunc,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidateJWT(r, jwtAuth, secret)
			if err != nil {
				onUnauthorized(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by the JWT middleware.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(jwt.MapClaims)
	return claims, ok
}

func extractAndValidateJWT(r *http.Request, jwtAuth auth.JWTAuthenticator, secret string) (jwt.MapClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingAuthHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return nil, errInvalidAuthHeader
	}

	claims := jwt.MapClaims{}
	if _, err := jwtAuth.ValidateTokenWithClaims(parts[1], secret, claims); err != nil {
		return nil, err
	}

	return claims, nil
}
