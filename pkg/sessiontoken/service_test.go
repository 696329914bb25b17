package sessiontoken

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodpal/foodpal/pkg/config"
	"github.com/foodpal/foodpal/pkg/identity"
)

func testUser() *identity.User {
	return &identity.User{
		ID:          uuid.New(),
		Email:       "person@example.com",
		DisplayName: "Pat Person",
	}
}

func TestHMACTokenGenerator(t *testing.T) {
	generator := NewHMACTokenGenerator("test-secret", "foodpal", "foodpal")

	t.Run("round trip", func(t *testing.T) {
		tokenStr, expiresAt, err := generator.GenerateToken("user-1", 30*time.Minute, map[string]interface{}{
			"email": "person@example.com",
		})
		require.NoError(t, err)
		assert.True(t, expiresAt.After(time.Now()))

		token, err := generator.ParseToken(tokenStr)
		require.NoError(t, err)
		claims, ok := token.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.Equal(t, "user-1", claims["sub"])
		assert.Equal(t, "foodpal", claims["iss"])
		assert.Equal(t, "person@example.com", claims["email"])
	})

	t.Run("wrong secret", func(t *testing.T) {
		tokenStr, _, err := generator.GenerateToken("user-1", 30*time.Minute, nil)
		require.NoError(t, err)

		other := NewHMACTokenGenerator("other-secret", "foodpal", "foodpal")
		_, err = other.ParseToken(tokenStr)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		tokenStr, _, err := generator.GenerateToken("user-1", -time.Minute, nil)
		require.NoError(t, err)

		_, err = generator.ParseToken(tokenStr)
		assert.Error(t, err)
	})
}

func TestRSATokenGenerator(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	generator := NewRSATokenGenerator(privateKey, "session-1", "foodpal", "foodpal")

	t.Run("round trip with key id", func(t *testing.T) {
		tokenStr, _, err := generator.GenerateToken("user-1", 30*time.Minute, nil)
		require.NoError(t, err)

		token, err := generator.ParseToken(tokenStr)
		require.NoError(t, err)
		assert.Equal(t, "session-1", token.Header["kid"])
	})

	t.Run("token signed by another key", func(t *testing.T) {
		otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		other := NewRSATokenGenerator(otherKey, "session-1", "foodpal", "foodpal")

		tokenStr, _, err := other.GenerateToken("user-1", 30*time.Minute, nil)
		require.NoError(t, err)

		_, err = generator.ParseToken(tokenStr)
		assert.Error(t, err)
	})
}

func TestService_Issue(t *testing.T) {
	service, err := NewServiceFromConfig(config.SessionConfig{
		Secret:   "test-secret",
		TokenTTL: "PT30M",
		Issuer:   "foodpal",
		Audience: "foodpal",
	})
	require.NoError(t, err)

	t.Run("subject is the internal user id", func(t *testing.T) {
		user := testUser()
		cred, err := service.Issue(user)
		require.NoError(t, err)
		assert.NotEmpty(t, cred.Token)
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), cred.ExpiresAt, time.Minute)

		token, err := jwtauth.VerifyToken(service.TokenAuth(), cred.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), token.Subject())

		email, ok := token.Get("email")
		require.True(t, ok)
		assert.Equal(t, user.Email, email)
	})

	t.Run("invalid ttl is rejected at construction", func(t *testing.T) {
		_, err := NewServiceFromConfig(config.SessionConfig{
			Secret:   "test-secret",
			TokenTTL: "half an hour",
		})
		assert.Error(t, err)
	})
}
