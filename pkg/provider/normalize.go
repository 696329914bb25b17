package provider

import (
	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
)

// Provider names wired by the default configuration
const (
	ProviderAzure  = "azure"
	ProviderGoogle = "google"
)

// Normalize maps a provider-specific claim set into the canonical identity
// shape. All claim-shape divergence between providers is isolated here: Azure
// AD B2C puts the email in a list-typed "emails" claim with no verified flag,
// Google uses a scalar "email" gated by "email_verified". Where a provider
// supplies a verification flag it is honored; an unverified email is treated
// as absent.
func Normalize(providerName string, claims *VerifiedClaims) (identity.Normalized, error) {
	if claims.Subject == "" {
		return identity.Normalized{}, errors.Newf(errors.ErrCodeIdentityClaimMissing,
			"token from provider %s carries no subject", providerName)
	}

	var email string
	switch providerName {
	case ProviderAzure:
		// Directory-asserted emails; B2C publishes no verification flag
		email = firstString(claims.Raw, "emails")
		if email == "" {
			email = stringClaim(claims.Raw, "email")
		}
	case ProviderGoogle:
		if boolClaim(claims.Raw, "email_verified") {
			email = stringClaim(claims.Raw, "email")
		}
	default:
		// Generic OIDC: honor the verified flag when the provider sends one
		if verified, present := claims.Raw["email_verified"]; !present || verified == true {
			email = stringClaim(claims.Raw, "email")
		}
	}

	if email == "" {
		return identity.Normalized{}, errors.Newf(errors.ErrCodeIdentityClaimMissing,
			"token from provider %s carries no verified email", providerName)
	}

	return identity.Normalized{
		Provider:    providerName,
		Subject:     claims.Subject,
		Email:       email,
		DisplayName: stringClaim(claims.Raw, "name"),
	}, nil
}

func stringClaim(raw map[string]interface{}, key string) string {
	s, _ := raw[key].(string)
	return s
}

func boolClaim(raw map[string]interface{}, key string) bool {
	b, _ := raw[key].(bool)
	return b
}

// firstString returns the first string entry of a list-typed claim
func firstString(raw map[string]interface{}, key string) string {
	list, ok := raw[key].([]interface{})
	if !ok || len(list) == 0 {
		return ""
	}
	s, _ := list[0].(string)
	return s
}
