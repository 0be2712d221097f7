package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registered(issuer, audience string, expiresIn time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		Subject:   "account-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}
}

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("accounts", "accounts")

	claims := registered("accounts", "accounts", time.Hour)
	token, err := a.GenerateToken(claims, "secret")
	require.NoError(t, err)

	parsed := jwt.RegisteredClaims{}
	_, err = a.ValidateTokenWithClaims(token, "secret", &parsed)
	require.NoError(t, err)
	assert.Equal(t, "account-1", parsed.Subject)
}

func TestJWTAuthenticator_RejectsWrongSecret(t *testing.T) {
	a := NewJWTAuthenticator("accounts", "accounts")

	token, err := a.GenerateToken(registered("accounts", "accounts", time.Hour), "right")
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(token, "wrong", &jwt.RegisteredClaims{})
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestJWTAuthenticator_RejectsExpired(t *testing.T) {
	a := NewJWTAuthenticator("accounts", "accounts")

	token, err := a.GenerateToken(registered("accounts", "accounts", -time.Minute), "secret")
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(token, "secret", &jwt.RegisteredClaims{})
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTAuthenticator_RejectsForeignIssuer(t *testing.T) {
	a := NewJWTAuthenticator("accounts", "accounts")

	token, err := a.GenerateToken(registered("someone-else", "accounts", time.Hour), "secret")
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(token, "secret", &jwt.RegisteredClaims{})
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestJWTAuthenticator_EmptySecret(t *testing.T) {
	a := NewJWTAuthenticator("accounts", "accounts")

	_, err := a.GenerateToken(registered("accounts", "accounts", time.Hour), "")
	assert.Error(t, err)
}
