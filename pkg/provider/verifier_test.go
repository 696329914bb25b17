package provider

import (
	"context"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodpal/foodpal/pkg/errors"
)

func signTestToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validTestClaims(cfg Config) jwt.MapClaims {
	return jwt.MapClaims{
		"iss": cfg.IssuerURL,
		"aud": cfg.ClientID,
		"sub": "u-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func TestVerifier_Verify(t *testing.T) {
	key := newTestRSAKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jwksFor(t, "kid-1", key))
	}))
	defer server.Close()

	cfg := testProviderConfig("acme-id", server.URL)
	verifier := NewVerifier(NewKeySetCache(time.Minute))

	t.Run("valid token", func(t *testing.T) {
		claims := validTestClaims(cfg)
		claims["email"] = "a@x.com"
		raw := signTestToken(t, key, "kid-1", claims)

		verified, err := verifier.Verify(context.Background(), cfg, raw)
		require.NoError(t, err)
		assert.Equal(t, "u-123", verified.Subject)
		assert.Equal(t, cfg.IssuerURL, verified.Issuer)
		assert.Contains(t, verified.Audience, cfg.ClientID)
		assert.Equal(t, "a@x.com", verified.Raw["email"])
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), cfg, "not.a.token")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedToken))
	})

	t.Run("missing kid header", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, validTestClaims(cfg))
		raw, err := token.SignedString(key)
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), cfg, raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedToken))
	})

	t.Run("bad signature", func(t *testing.T) {
		otherKey := newTestRSAKey(t)
		raw := signTestToken(t, otherKey, "kid-1", validTestClaims(cfg))

		_, err := verifier.Verify(context.Background(), cfg, raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidSignature))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validTestClaims(cfg)
		claims["iss"] = "https://evil.example.com/"
		raw := signTestToken(t, key, "kid-1", claims)

		_, err := verifier.Verify(context.Background(), cfg, raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeClaimMismatch))
	})

	t.Run("alternate issuer form", func(t *testing.T) {
		// Google signs some tokens with the schemeless issuer
		withAlt := cfg
		withAlt.AltIssuers = []string{"accounts.google.com"}
		claims := validTestClaims(cfg)
		claims["iss"] = "accounts.google.com"
		raw := signTestToken(t, key, "kid-1", claims)

		verified, err := verifier.Verify(context.Background(), withAlt, raw)
		require.NoError(t, err)
		assert.Equal(t, "accounts.google.com", verified.Issuer)

		// without the alternate configured the same token is rejected
		_, err = verifier.Verify(context.Background(), cfg, raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeClaimMismatch))
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := validTestClaims(cfg)
		claims["aud"] = "someone-else"
		raw := signTestToken(t, key, "kid-1", claims)

		_, err := verifier.Verify(context.Background(), cfg, raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeClaimMismatch))
	})

	t.Run("audience list containing the client id", func(t *testing.T) {
		claims := validTestClaims(cfg)
		claims["aud"] = []string{"someone-else", cfg.ClientID}
		raw := signTestToken(t, key, "kid-1", claims)

		_, err := verifier.Verify(context.Background(), cfg, raw)
		assert.NoError(t, err)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validTestClaims(cfg)
		delete(claims, "exp")
		raw := signTestToken(t, key, "kid-1", claims)

		_, err := verifier.Verify(context.Background(), cfg, raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeClaimMismatch))
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validTestClaims(cfg)
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		raw := signTestToken(t, key, "kid-1", claims)

		_, err := verifier.Verify(context.Background(), cfg, raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenExpired))
	})
}

func TestVerifier_KeyRotation(t *testing.T) {
	oldKey := newTestRSAKey(t)
	newKey := newTestRSAKey(t)

	t.Run("unknown kid forces exactly one refresh", func(t *testing.T) {
		var fetches int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// first fetch serves the pre-rotation set, later fetches the rotated one
			if atomic.AddInt32(&fetches, 1) == 1 {
				w.Write(jwksFor(t, "kid-old", oldKey))
				return
			}
			w.Write(jwksFor(t, "kid-new", newKey))
		}))
		defer server.Close()

		cfg := testProviderConfig("rotating", server.URL)
		verifier := NewVerifier(NewKeySetCache(time.Minute))

		// warm the cache with the pre-rotation set
		_, err := verifier.keys.GetKeys(context.Background(), cfg)
		require.NoError(t, err)

		raw := signTestToken(t, newKey, "kid-new", validTestClaims(cfg))
		verified, err := verifier.Verify(context.Background(), cfg, raw)
		require.NoError(t, err)
		assert.Equal(t, "u-123", verified.Subject)
		assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
	})

	t.Run("kid missing after refresh fails without a second retry", func(t *testing.T) {
		var fetches int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&fetches, 1)
			w.Write(jwksFor(t, "kid-old", oldKey))
		}))
		defer server.Close()

		cfg := testProviderConfig("stale", server.URL)
		verifier := NewVerifier(NewKeySetCache(time.Minute))

		raw := signTestToken(t, newKey, "kid-unknown", validTestClaims(cfg))
		_, err := verifier.Verify(context.Background(), cfg, raw)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownKey))
		assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
	})
}
