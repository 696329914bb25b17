package authflow

import (
	"context"
	"log/slog"

	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
	"github.com/foodpal/foodpal/pkg/provider"
	"github.com/foodpal/foodpal/pkg/sessiontoken"
)

// Service runs the federated login flow end to end: provider credential in,
// session credential out. Each step either advances the flow or fails it with
// a coded error; there is no partial success, and no session token is issued
// for a request whose context has been cancelled.
type Service struct {
	registry  *provider.Registry
	exchanger *provider.Exchanger
	verifier  *provider.Verifier
	resolver  *identity.Resolver
	sessions  *sessiontoken.Service
}

// NewService creates the login flow service
func NewService(
	registry *provider.Registry,
	exchanger *provider.Exchanger,
	verifier *provider.Verifier,
	resolver *identity.Resolver,
	sessions *sessiontoken.Service,
) *Service {
	return &Service{
		registry:  registry,
		exchanger: exchanger,
		verifier:  verifier,
		resolver:  resolver,
		sessions:  sessions,
	}
}

// LoginResult is a completed login: the resolved user and the issued session
// credential.
type LoginResult struct {
	User       *identity.User           `json:"user"`
	Credential *sessiontoken.Credential `json:"credential"`
}

// Providers returns the names of the configured identity providers
func (s *Service) Providers() []string {
	return s.registry.Names()
}

// LoginWithCode performs the authorization-code login flow: exchange the code
// with the provider, then verify and resolve the returned identity token.
func (s *Service) LoginWithCode(ctx context.Context, providerName, code string) (*LoginResult, error) {
	cfg, err := s.registry.Get(providerName)
	if err != nil {
		return nil, errors.NotFound("provider", providerName)
	}
	if cfg.Flow != provider.FlowAuthorizationCode {
		return nil, errors.InvalidInput("provider", "does not support the authorization-code flow")
	}
	if code == "" {
		return nil, errors.InvalidInput("code", "must not be empty")
	}

	tokenSet, err := s.exchanger.Exchange(ctx, cfg, code)
	if err != nil {
		slog.Error("Authorization code exchange failed", "provider", providerName, "err", err)
		return nil, err
	}

	return s.finishLogin(ctx, cfg, tokenSet.IDToken)
}

// LoginWithIDToken performs the bearer login flow for providers whose clients
// obtain the identity token directly.
func (s *Service) LoginWithIDToken(ctx context.Context, providerName, rawToken string) (*LoginResult, error) {
	cfg, err := s.registry.Get(providerName)
	if err != nil {
		return nil, errors.NotFound("provider", providerName)
	}
	if rawToken == "" {
		return nil, errors.InvalidInput("id_token", "must not be empty")
	}

	return s.finishLogin(ctx, cfg, rawToken)
}

func (s *Service) finishLogin(ctx context.Context, cfg provider.Config, rawToken string) (*LoginResult, error) {
	claims, err := s.verifier.Verify(ctx, cfg, rawToken)
	if err != nil {
		slog.Error("Identity token verification failed", "provider", cfg.Name, "err", err)
		return nil, err
	}

	ident, err := provider.Normalize(cfg.Name, claims)
	if err != nil {
		slog.Error("Identity claims unusable", "provider", cfg.Name, "subject", claims.Subject, "err", err)
		return nil, err
	}

	user, err := s.resolver.Resolve(ctx, ident)
	if err != nil {
		slog.Error("Identity resolution failed", "provider", cfg.Name, "subject", ident.Subject, "err", err)
		return nil, err
	}

	// An abandoned request must not mint a credential nobody will receive
	if err := ctx.Err(); err != nil {
		slog.Warn("Login abandoned before session issuance", "provider", cfg.Name, "user_id", user.ID)
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "request cancelled")
	}

	credential, err := s.sessions.Issue(user)
	if err != nil {
		slog.Error("Session issuance failed", "provider", cfg.Name, "user_id", user.ID, "err", err)
		return nil, err
	}

	slog.Info("Login completed", "provider", cfg.Name, "user_id", user.ID)
	return &LoginResult{User: user, Credential: credential}, nil
}
