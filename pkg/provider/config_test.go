package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	azure := Config{
		Name:          "azure",
		IssuerURL:     "https://tenant.b2clogin.com/tenant.onmicrosoft.com/v2.0/",
		ClientID:      "az-client",
		ClientSecret:  "az-secret",
		JWKSURI:       "https://tenant.b2clogin.com/discovery/v2.0/keys",
		TokenEndpoint: "https://tenant.b2clogin.com/oauth2/v2.0/token",
		Flow:          FlowAuthorizationCode,
	}
	google := Config{
		Name:      "google",
		IssuerURL: "https://accounts.google.com",
		ClientID:  "g-client",
		JWKSURI:   "https://www.googleapis.com/oauth2/v3/certs",
		Flow:      FlowBearerIDToken,
	}

	t.Run("get and names", func(t *testing.T) {
		registry, err := NewRegistry(azure, google)
		require.NoError(t, err)

		cfg, err := registry.Get("azure")
		require.NoError(t, err)
		assert.Equal(t, "az-client", cfg.ClientID)

		_, err = registry.Get("facebook")
		assert.Error(t, err)

		assert.Equal(t, []string{"azure", "google"}, registry.Names())
	})

	t.Run("duplicate provider name", func(t *testing.T) {
		_, err := NewRegistry(google, google)
		assert.Error(t, err)
	})

	t.Run("code flow requires exchange settings", func(t *testing.T) {
		broken := azure
		broken.TokenEndpoint = ""
		_, err := NewRegistry(broken)
		assert.Error(t, err)
	})

	t.Run("issuer matching covers alternates", func(t *testing.T) {
		withAlt := google
		withAlt.AltIssuers = []string{"accounts.google.com"}

		assert.True(t, withAlt.IssuerMatches("https://accounts.google.com"))
		assert.True(t, withAlt.IssuerMatches("accounts.google.com"))
		assert.False(t, withAlt.IssuerMatches("https://evil.example.com"))
		assert.False(t, google.IssuerMatches("accounts.google.com"))
	})

	t.Run("audience defaults to the client id", func(t *testing.T) {
		assert.Equal(t, "g-client", google.ExpectedAudience())
		withAud := google
		withAud.Audience = "api://foodpal"
		assert.Equal(t, "api://foodpal", withAud.ExpectedAudience())
	})
}
