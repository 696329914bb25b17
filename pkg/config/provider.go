package config

import "fmt"

// ExternalProviderConfig contains the identity provider settings. Azure AD B2C
// uses the authorization-code flow; Google accepts a bearer ID token directly.
type ExternalProviderConfig struct {
	// Azure AD B2C
	AzureTenant       string `env:"AZURE_AD_B2C_TENANT_NAME" env-default:""`
	AzurePolicy       string `env:"AZURE_AD_B2C_POLICY" env-default:"B2C_1_signin"`
	AzureClientID     string `env:"AZURE_AD_B2C_CLIENT_ID" env-default:""`
	AzureClientSecret string `env:"AZURE_AD_B2C_CLIENT_SECRET" env-default:""`
	AzureRedirectURI  string `env:"AZURE_AD_B2C_REDIRECT_URI" env-default:""`

	// Google OIDC
	GoogleClientID string `env:"GOOGLE_CLIENT_ID" env-default:""`

	// How long fetched provider key sets stay fresh (ISO-8601)
	KeySetTTL string `env:"PROVIDER_KEYSET_TTL" env-default:"PT15M"`

	// Request timeout for provider calls (ISO-8601)
	HTTPTimeout string `env:"PROVIDER_HTTP_TIMEOUT" env-default:"PT10S"`
}

// AzureIssuerURL returns the tenant's token issuer URL
func (c ExternalProviderConfig) AzureIssuerURL() string {
	return fmt.Sprintf("https://%s.b2clogin.com/%s.onmicrosoft.com/v2.0/", c.AzureTenant, c.AzureTenant)
}

// AzureJWKSURI returns the tenant's signing key endpoint for the configured policy
func (c ExternalProviderConfig) AzureJWKSURI() string {
	return fmt.Sprintf("https://%s.b2clogin.com/%s.onmicrosoft.com/discovery/v2.0/keys?p=%s",
		c.AzureTenant, c.AzureTenant, c.AzurePolicy)
}

// AzureTokenEndpoint returns the tenant's token endpoint for the configured policy
func (c ExternalProviderConfig) AzureTokenEndpoint() string {
	return fmt.Sprintf("https://%s.b2clogin.com/%s.onmicrosoft.com/%s/oauth2/v2.0/token",
		c.AzureTenant, c.AzureTenant, c.AzurePolicy)
}

// IsAzureConfigured returns true if the Azure AD B2C credentials are set
func (c ExternalProviderConfig) IsAzureConfigured() bool {
	return c.AzureTenant != "" && c.AzureClientID != "" && c.AzureClientSecret != ""
}

// IsGoogleConfigured returns true if the Google client ID is set
func (c ExternalProviderConfig) IsGoogleConfigured() bool {
	return c.GoogleClientID != ""
}
