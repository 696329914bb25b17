package sessiontoken

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/foodpal/foodpal/pkg/config"
	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
)

// Credential is an issued session token together with its expiry
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service issues the application's own session credentials for resolved
// users. The session token only ever carries the internal user ID as its
// subject, never a provider subject.
type Service struct {
	generator TokenGenerator
	tokenAuth *jwtauth.JWTAuth
	ttl       time.Duration
}

// NewService creates a session token service
func NewService(generator TokenGenerator, tokenAuth *jwtauth.JWTAuth, ttl time.Duration) *Service {
	return &Service{
		generator: generator,
		tokenAuth: tokenAuth,
		ttl:       ttl,
	}
}

// NewServiceFromConfig builds the service from the session configuration,
// choosing RS256 when a private key file is configured and HS256 otherwise.
func NewServiceFromConfig(cfg config.SessionConfig) (*Service, error) {
	ttl, err := cfg.ParseTokenTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid session token TTL: %w", err)
	}

	if cfg.UseRSA() {
		privateKey, err := LoadRSAPrivateKeyFromFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, err
		}
		generator := NewRSATokenGenerator(privateKey, "session-1", cfg.Issuer, cfg.Audience)
		tokenAuth := jwtauth.New("RS256", privateKey, &privateKey.PublicKey)
		return NewService(generator, tokenAuth, ttl), nil
	}

	generator := NewHMACTokenGenerator(cfg.Secret, cfg.Issuer, cfg.Audience)
	tokenAuth := jwtauth.New("HS256", []byte(cfg.Secret), nil)
	return NewService(generator, tokenAuth, ttl), nil
}

// Issue creates a session credential for the given user
func (s *Service) Issue(user *identity.User) (*Credential, error) {
	extraClaims := map[string]interface{}{
		"email": user.Email,
	}
	if user.DisplayName != "" {
		extraClaims["name"] = user.DisplayName
	}

	token, expiresAt, err := s.generator.GenerateToken(user.ID.String(), s.ttl, extraClaims)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to issue session token")
	}

	return &Credential{Token: token, ExpiresAt: expiresAt}, nil
}

// TokenAuth exposes the verification context for route middleware
func (s *Service) TokenAuth() *jwtauth.JWTAuth {
	return s.tokenAuth
}
