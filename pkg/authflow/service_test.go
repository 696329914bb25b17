package authflow

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodpal/foodpal/pkg/config"
	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
	"github.com/foodpal/foodpal/pkg/provider"
	"github.com/foodpal/foodpal/pkg/sessiontoken"
	"github.com/foodpal/foodpal/pkg/user"
)

// fakeProvider is an httptest-backed identity provider serving a JWKS
// endpoint and, for the code flow, a token endpoint.
type fakeProvider struct {
	key    *rsa.PrivateKey
	kid    string
	server *httptest.Server

	// idToken is what the token endpoint hands out for any code
	idToken string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &fakeProvider{key: key, kid: "fp-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		doc := map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": p.kid,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		}
		json.NewEncoder(w).Encode(doc)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") == "bad-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "at-1",
			"token_type":   "Bearer",
			"id_token":     p.idToken,
		})
	})
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) config(name string, flow provider.Flow) provider.Config {
	return provider.Config{
		Name:          name,
		IssuerURL:     p.server.URL + "/",
		ClientID:      "client-1",
		ClientSecret:  "secret-1",
		JWKSURI:       p.server.URL + "/keys",
		TokenEndpoint: p.server.URL + "/token",
		RedirectURI:   "https://app.example.com/callback",
		Flow:          flow,
	}
}

func (p *fakeProvider) signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["iss"]; !ok {
		claims["iss"] = p.server.URL + "/"
	}
	if _, ok := claims["aud"]; !ok {
		claims["aud"] = "client-1"
	}
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = p.kid
	signed, err := token.SignedString(p.key)
	require.NoError(t, err)
	return signed
}

func newTestService(t *testing.T, registry *provider.Registry, store identity.UserStore) *Service {
	t.Helper()
	sessions, err := sessiontoken.NewServiceFromConfig(config.SessionConfig{
		Secret:   "test-secret",
		TokenTTL: "PT30M",
		Issuer:   "foodpal",
		Audience: "foodpal",
	})
	require.NoError(t, err)

	return NewService(
		registry,
		provider.NewExchanger(),
		provider.NewVerifier(provider.NewKeySetCache(time.Minute)),
		identity.NewResolver(store),
		sessions,
	)
}

func TestService_LoginWithCode(t *testing.T) {
	fp := newFakeProvider(t)
	fp.idToken = fp.signToken(t, jwt.MapClaims{
		"sub":    "az-1",
		"emails": []interface{}{"person@example.com"},
		"name":   "Pat Person",
	})

	registry, err := provider.NewRegistry(fp.config("azure", provider.FlowAuthorizationCode))
	require.NoError(t, err)
	store := user.NewInMemUserStore()
	service := newTestService(t, registry, store)

	t.Run("completes the full flow", func(t *testing.T) {
		result, err := service.LoginWithCode(context.Background(), "azure", "code-1")
		require.NoError(t, err)
		assert.Equal(t, "person@example.com", result.User.Email)
		assert.True(t, result.User.HasProviderLink("azure", "az-1"))
		assert.NotEmpty(t, result.Credential.Token)
	})

	t.Run("is idempotent for the same identity", func(t *testing.T) {
		first, err := service.LoginWithCode(context.Background(), "azure", "code-1")
		require.NoError(t, err)
		second, err := service.LoginWithCode(context.Background(), "azure", "code-2")
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, second.User.ID)
	})

	t.Run("rejected code surfaces as a retryable failure", func(t *testing.T) {
		_, err := service.LoginWithCode(context.Background(), "azure", "bad-code")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeCodeExchangeFailed))
		assert.Equal(t, errors.ClassRetryLogin, errors.Classify(err))
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := service.LoginWithCode(context.Background(), "nope", "code-1")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("bearer-only provider rejects the code flow", func(t *testing.T) {
		bearerRegistry, err := provider.NewRegistry(fp.config("google", provider.FlowBearerIDToken))
		require.NoError(t, err)
		bearerService := newTestService(t, bearerRegistry, store)

		_, err = bearerService.LoginWithCode(context.Background(), "google", "code-1")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	})
}

func TestService_LoginWithIDToken(t *testing.T) {
	fp := newFakeProvider(t)
	registry, err := provider.NewRegistry(fp.config("google", provider.FlowBearerIDToken))
	require.NoError(t, err)
	store := user.NewInMemUserStore()
	service := newTestService(t, registry, store)

	t.Run("verified bearer token logs in", func(t *testing.T) {
		raw := fp.signToken(t, jwt.MapClaims{
			"sub":            "g-1",
			"email":          "g@example.com",
			"email_verified": true,
		})

		result, err := service.LoginWithIDToken(context.Background(), "google", raw)
		require.NoError(t, err)
		assert.True(t, result.User.HasProviderLink("google", "g-1"))
	})

	t.Run("unverified email is a restart failure", func(t *testing.T) {
		raw := fp.signToken(t, jwt.MapClaims{
			"sub":            "g-2",
			"email":          "g2@example.com",
			"email_verified": false,
		})

		_, err := service.LoginWithIDToken(context.Background(), "google", raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeIdentityClaimMissing))
		assert.Equal(t, errors.ClassRestartLogin, errors.Classify(err))
	})

	t.Run("expired token is a restart failure", func(t *testing.T) {
		raw := fp.signToken(t, jwt.MapClaims{
			"sub":            "g-3",
			"email":          "g3@example.com",
			"email_verified": true,
			"exp":            time.Now().Add(-time.Minute).Unix(),
		})

		_, err := service.LoginWithIDToken(context.Background(), "google", raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenExpired))
		assert.Equal(t, errors.ClassRestartLogin, errors.Classify(err))
	})
}

func TestService_AccountLinking(t *testing.T) {
	fp := newFakeProvider(t)
	registry, err := provider.NewRegistry(
		fp.config("acme-id", provider.FlowBearerIDToken),
		fp.config("google", provider.FlowBearerIDToken),
	)
	require.NoError(t, err)
	store := user.NewInMemUserStore()
	service := newTestService(t, registry, store)

	t.Run("second provider with the same email links to the same account", func(t *testing.T) {
		first, err := service.LoginWithIDToken(context.Background(), "acme-id", fp.signToken(t, jwt.MapClaims{
			"sub":   "u-123",
			"email": "a@x.com",
		}))
		require.NoError(t, err)

		second, err := service.LoginWithIDToken(context.Background(), "google", fp.signToken(t, jwt.MapClaims{
			"sub":            "g-9",
			"email":          "a@x.com",
			"email_verified": true,
		}))
		require.NoError(t, err)

		assert.Equal(t, first.User.ID, second.User.ID)
		assert.True(t, second.User.HasProviderLink("acme-id", "u-123"))
		assert.True(t, second.User.HasProviderLink("google", "g-9"))
	})
}

func TestService_CancelledContext(t *testing.T) {
	fp := newFakeProvider(t)
	registry, err := provider.NewRegistry(fp.config("google", provider.FlowBearerIDToken))
	require.NoError(t, err)
	store := user.NewInMemUserStore()
	service := newTestService(t, registry, store)

	raw := fp.signToken(t, jwt.MapClaims{
		"sub":            "g-1",
		"email":          "g@example.com",
		"email_verified": true,
	})

	// warm the key cache so verification needs no network round trip
	_, err = service.LoginWithIDToken(context.Background(), "google", raw)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := service.LoginWithIDToken(ctx, "google", raw)
	require.Error(t, err)
	assert.Nil(t, result)
}
