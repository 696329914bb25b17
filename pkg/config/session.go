package config

import (
	"time"
)

// SessionConfig holds the configuration for the application's own session
// credential. Signing is symmetric (HS256 with Secret) unless a private key
// file is configured, in which case RS256 is used.
type SessionConfig struct {
	Secret         string `env:"SESSION_JWT_SECRET" env-default:"very-secure-jwt-secret"`
	PrivateKeyFile string `env:"SESSION_PRIVATE_KEY_FILE" env-default:""`
	TokenTTL       string `env:"SESSION_TOKEN_TTL" env-default:"PT30M"`
	Issuer         string `env:"SESSION_JWT_ISSUER" env-default:"foodpal"`
	Audience       string `env:"SESSION_JWT_AUDIENCE" env-default:"foodpal"`
}

// ParseTokenTTL parses the session token lifetime
func (s SessionConfig) ParseTokenTTL() (time.Duration, error) {
	return ParseDurationISO8601(s.TokenTTL)
}

// UseRSA reports whether an asymmetric signing key is configured
func (s SessionConfig) UseRSA() bool {
	return s.PrivateKeyFile != ""
}

// NewSessionConfigFromEnv creates a SessionConfig from environment variables
func NewSessionConfigFromEnv() SessionConfig {
	return SessionConfig{
		Secret:         GetEnvOrDefault("SESSION_JWT_SECRET", "very-secure-jwt-secret"),
		PrivateKeyFile: GetEnv("SESSION_PRIVATE_KEY_FILE"),
		TokenTTL:       GetEnvOrDefault("SESSION_TOKEN_TTL", "PT30M"),
		Issuer:         GetEnvOrDefault("SESSION_JWT_ISSUER", "foodpal"),
		Audience:       GetEnvOrDefault("SESSION_JWT_AUDIENCE", "foodpal"),
	}
}
