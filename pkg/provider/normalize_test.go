package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodpal/foodpal/pkg/errors"
)

func claimsWith(subject string, raw map[string]interface{}) *VerifiedClaims {
	return &VerifiedClaims{Subject: subject, Raw: raw}
}

func TestNormalize_Azure(t *testing.T) {
	t.Run("email from the list-typed emails claim", func(t *testing.T) {
		ident, err := Normalize(ProviderAzure, claimsWith("az-1", map[string]interface{}{
			"emails": []interface{}{"person@example.com", "alias@example.com"},
			"name":   "Pat Person",
		}))
		require.NoError(t, err)
		assert.Equal(t, "azure", ident.Provider)
		assert.Equal(t, "az-1", ident.Subject)
		assert.Equal(t, "person@example.com", ident.Email)
		assert.Equal(t, "Pat Person", ident.DisplayName)
	})

	t.Run("falls back to the scalar email claim", func(t *testing.T) {
		ident, err := Normalize(ProviderAzure, claimsWith("az-2", map[string]interface{}{
			"email": "solo@example.com",
		}))
		require.NoError(t, err)
		assert.Equal(t, "solo@example.com", ident.Email)
	})

	t.Run("empty emails list with no fallback", func(t *testing.T) {
		_, err := Normalize(ProviderAzure, claimsWith("az-3", map[string]interface{}{
			"emails": []interface{}{},
		}))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeIdentityClaimMissing))
	})
}

func TestNormalize_Google(t *testing.T) {
	t.Run("verified email", func(t *testing.T) {
		ident, err := Normalize(ProviderGoogle, claimsWith("goog-1", map[string]interface{}{
			"email":          "g@example.com",
			"email_verified": true,
			"name":           "G Person",
		}))
		require.NoError(t, err)
		assert.Equal(t, "g@example.com", ident.Email)
	})

	t.Run("unverified email is treated as absent", func(t *testing.T) {
		_, err := Normalize(ProviderGoogle, claimsWith("goog-2", map[string]interface{}{
			"email":          "g@example.com",
			"email_verified": false,
		}))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeIdentityClaimMissing))
	})

	t.Run("missing verification flag is treated as absent", func(t *testing.T) {
		_, err := Normalize(ProviderGoogle, claimsWith("goog-3", map[string]interface{}{
			"email": "g@example.com",
		}))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeIdentityClaimMissing))
	})
}

func TestNormalize_Generic(t *testing.T) {
	t.Run("email without a verification flag", func(t *testing.T) {
		ident, err := Normalize("acme-id", claimsWith("u-123", map[string]interface{}{
			"email": "a@x.com",
		}))
		require.NoError(t, err)
		assert.Equal(t, "acme-id", ident.Provider)
		assert.Equal(t, "u-123", ident.Subject)
		assert.Equal(t, "a@x.com", ident.Email)
	})

	t.Run("explicitly unverified email", func(t *testing.T) {
		_, err := Normalize("acme-id", claimsWith("u-123", map[string]interface{}{
			"email":          "a@x.com",
			"email_verified": false,
		}))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeIdentityClaimMissing))
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := Normalize("acme-id", claimsWith("", map[string]interface{}{
			"email": "a@x.com",
		}))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeIdentityClaimMissing))
	})
}
