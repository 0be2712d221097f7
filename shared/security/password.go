package security

import (
	"github.com/matthewhartstonge/argon2"
)

// PasswordConfig holds the argon2id cost parameters.
type PasswordConfig struct {
	TimeCost    uint32
	MemoryCost  uint32
	Parallelism uint8
}

// PasswordHasher hashes and verifies passwords using argon2id.
// The salt is random per call and encoded into the PHC digest.
type PasswordHasher struct {
	config argon2.Config
}

var defaultHasher = NewPasswordHasher(PasswordConfig{})

// NewPasswordHasher creates a PasswordHasher. Zero fields fall back to the
// library defaults.
func NewPasswordHasher(cfg PasswordConfig) *PasswordHasher {
	config := argon2.DefaultConfig()
	if cfg.TimeCost > 0 {
		config.TimeCost = cfg.TimeCost
	}
	if cfg.MemoryCost > 0 {
		config.MemoryCost = cfg.MemoryCost
	}
	if cfg.Parallelism > 0 {
		config.Parallelism = cfg.Parallelism
	}

	return &PasswordHasher{config: config}
}

// Hash returns the encoded argon2id digest of the given password.
// An error means the random source failed.
func (h *PasswordHasher) Hash(password string) (string, error) {
	config := h.config

	encoded, err := config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// Verify reports whether password matches the encoded digest.
// The comparison is constant time.
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}

// HashPassword hashes a password with the default parameters.
func HashPassword(password string) (string, error) {
	return defaultHasher.Hash(password)
}

// VerifyPassword verifies a password against an encoded digest.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return defaultHasher.Verify(password, encodedHash)
}
