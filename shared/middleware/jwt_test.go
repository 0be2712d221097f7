package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/account-lifecycle-api/shared/auth"
)

const testSecret = "middleware-secret"

func newProtected(t *testing.T) (http.Handler, auth.JWTAuthenticator) {
	t.Helper()

	jwtAuth := auth.NewJWTAuthenticator("accounts", "accounts")
	mw := NewJWTMiddleware(jwtAuth, testSecret, func(w http.ResponseWriter, _ *http.Request, _ error) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		sub, _ := claims.GetSubject()
		_, _ = w.Write([]byte(sub))
	})

	return mw(next), jwtAuth
}

func signed(t *testing.T, jwtAuth auth.JWTAuthenticator, expiresIn time.Duration) string {
	t.Helper()

	now := time.Now()
	token, err := jwtAuth.GenerateToken(jwt.RegisteredClaims{
		Issuer:    "accounts",
		Audience:  jwt.ClaimStrings{"accounts"},
		Subject:   "account-42",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}, testSecret)
	require.NoError(t, err)

	return token
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	handler, jwtAuth := newProtected(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwtAuth, time.Hour))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "account-42", rec.Body.String())
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	handler, jwtAuth := newProtected(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + signed(t, jwtAuth, -time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
