package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens is the session credential returned after a successful login.
type Tokens struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// JWTClaims are the claims carried by an access token. The subject is the
// account ID and Email is the stable identity claim.
type JWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
