package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/account-lifecycle-api/shared/discovery"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/logger"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/mailer"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// AuthServiceConfig holds the configuration of the auth service.
type AuthServiceConfig struct {
	ServiceName string `env:"AUTH_SERVICE_NAME" envDefault:"auth-service"`
	HTTPAddr    string `env:"AUTH_HTTP_ADDR"    envDefault:":8080"`
	Store       string `env:"AUTH_STORE"        envDefault:"mongo"`

	Log      logger.Config
	Mongo    MongoConfig            `envPrefix:"MONGO_"`
	Token    TokenConfig            `envPrefix:"TOKEN_"`
	OTP      OTPConfig              `envPrefix:"OTP_"`
	Password PasswordConfig         `envPrefix:"PASSWORD_"`
	SMTP     mailer.Config          `envPrefix:"SMTP_"`
	Outbox   OutboxConfig           `envPrefix:"OUTBOX_"`
	Consul   discovery.ConsulConfig `envPrefix:"CONSUL_"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI          string        `env:"URI"           envDefault:"mongodb://localhost:27017"`
	Database     string        `env:"DATABASE"      envDefault:"accounts"`
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"5s"`
}

// TokenConfig holds the session token settings.
type TokenConfig struct {
	Issuer               string        `env:"ISSUER"                  envDefault:"account-lifecycle-api"`
	AccessTokenSecret    string        `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiresIn time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN" envDefault:"24h"`
}

// OTPConfig holds the one-time passcode settings.
type OTPConfig struct {
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"15m"`
}

// PasswordConfig holds the argon2id cost parameters.
type PasswordConfig struct {
	TimeCost    uint32 `env:"ARGON2_TIME_COST"   envDefault:"3"`
	MemoryCost  uint32 `env:"ARGON2_MEMORY_COST" envDefault:"65536"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM" envDefault:"4"`
}

// OutboxConfig holds the mail outbox dispatcher settings.
type OutboxConfig struct {
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	Lease        time.Duration `env:"LEASE"         envDefault:"1m"`
	MaxAttempts  int           `env:"MAX_ATTEMPTS"  envDefault:"5"`
}

// NewAuthServiceConfig parses the configuration from environment variables.
func NewAuthServiceConfig(logger *zerolog.Logger) *AuthServiceConfig {
	cfg, err := Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load auth service configuration")
	}

	return cfg
}

// Load parses and validates the configuration from environment variables.
func Load() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that have no safe default.
func (c *AuthServiceConfig) Validate() error {
	var errs []error

	if c.Store != StoreMongo && c.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("unknown AUTH_STORE %q", c.Store))
	}
	if c.Token.AccessTokenSecret == "" {
		errs = append(errs, errors.New("missing TOKEN_ACCESS_TOKEN_SECRET environment variable"))
	}
	if c.Token.AccessTokenExpiresIn <= 0 {
		errs = append(errs, errors.New("TOKEN_ACCESS_TOKEN_EXPIRES_IN must be positive"))
	}
	if c.OTP.ExpiresIn <= 0 {
		errs = append(errs, errors.New("OTP_EXPIRES_IN must be positive"))
	}
	if c.Mongo.QueryTimeout <= 0 {
		errs = append(errs, errors.New("MONGO_QUERY_TIMEOUT must be positive"))
	}
	if c.Outbox.PollInterval <= 0 || c.Outbox.Lease <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL and OUTBOX_LEASE must be positive"))
	}
	if c.Outbox.MaxAttempts <= 0 {
		errs = append(errs, errors.New("OUTBOX_MAX_ATTEMPTS must be positive"))
	}

	return errors.Join(errs...)
}
