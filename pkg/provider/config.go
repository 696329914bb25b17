package provider

import (
	"fmt"
	"net/url"
	"sort"
)

// Flow indicates how a provider hands the client an identity token.
type Flow string

const (
	// FlowAuthorizationCode providers require a server-to-server code
	// exchange before the identity token is available.
	FlowAuthorizationCode Flow = "authorization_code"
	// FlowBearerIDToken providers let the client present a provider-signed
	// ID token directly.
	FlowBearerIDToken Flow = "bearer_id_token"
)

// Config is the immutable trust configuration for one external identity
// provider, loaded once at startup.
type Config struct {
	Name          string
	IssuerURL     string
	ClientID      string
	ClientSecret  string
	JWKSURI       string
	TokenEndpoint string
	RedirectURI   string
	Audience      string
	Flow          Flow
	// AltIssuers lists additional issuer values the provider signs tokens
	// with. Google issues both "https://accounts.google.com" and the
	// schemeless "accounts.google.com".
	AltIssuers []string
}

// IssuerMatches reports whether the issuer claim names this provider.
func (c Config) IssuerMatches(issuer string) bool {
	if issuer == c.IssuerURL {
		return true
	}
	for _, alt := range c.AltIssuers {
		if issuer == alt {
			return true
		}
	}
	return false
}

// ExpectedAudience returns the audience an identity token must carry.
// Defaults to the client ID when no explicit audience is configured.
func (c Config) ExpectedAudience() string {
	if c.Audience != "" {
		return c.Audience
	}
	return c.ClientID
}

// Validate checks the provider configuration
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer URL is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if c.JWKSURI == "" {
		return fmt.Errorf("JWKS URI is required")
	}
	if _, err := url.Parse(c.JWKSURI); err != nil {
		return fmt.Errorf("invalid JWKS URI: %w", err)
	}
	if c.Flow == FlowAuthorizationCode {
		if c.TokenEndpoint == "" {
			return fmt.Errorf("token endpoint is required for the authorization-code flow")
		}
		if c.ClientSecret == "" {
			return fmt.Errorf("client secret is required for the authorization-code flow")
		}
	}
	return nil
}

// Registry is an immutable mapping from provider name to Config, built once at
// startup and passed explicitly to the login flow.
type Registry struct {
	providers map[string]Config
}

// NewRegistry validates and registers the given provider configurations.
// Provider names must be unique.
func NewRegistry(configs ...Config) (*Registry, error) {
	m := make(map[string]Config, len(configs))
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("provider %q: %w", cfg.Name, err)
		}
		if _, exists := m[cfg.Name]; exists {
			return nil, fmt.Errorf("duplicate provider name: %s", cfg.Name)
		}
		m[cfg.Name] = cfg
	}
	return &Registry{providers: m}, nil
}

// Get returns the provider configuration by name
func (r *Registry) Get(name string) (Config, error) {
	cfg, ok := r.providers[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown provider: %s", name)
	}
	return cfg, nil
}

// Names returns the registered provider names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
