package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationISO8601(t *testing.T) {
	t.Run("key set TTL default", func(t *testing.T) {
		d, err := ParseDurationISO8601("PT15M")
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, d)
	})

	t.Run("provider HTTP timeout default", func(t *testing.T) {
		d, err := ParseDurationISO8601("PT10S")
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, d)
	})

	t.Run("rejects a non-ISO duration", func(t *testing.T) {
		_, err := ParseDurationISO8601("ten seconds")
		assert.Error(t, err)
	})
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("FOODPAL_TEST_KEY", "from-env")
	assert.Equal(t, "from-env", GetEnvOrDefault("FOODPAL_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("FOODPAL_TEST_MISSING", "fallback"))
}

func TestNewSessionConfigFromEnv(t *testing.T) {
	t.Setenv("SESSION_JWT_SECRET", "env-secret")
	t.Setenv("SESSION_TOKEN_TTL", "PT1H")

	cfg := NewSessionConfigFromEnv()
	assert.Equal(t, "env-secret", cfg.Secret)
	assert.Equal(t, "foodpal", cfg.Issuer)
	assert.False(t, cfg.UseRSA())

	ttl, err := cfg.ParseTokenTTL()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)
}
