package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sosodev/duration"
)

// GetEnv retrieves an environment variable value
// Returns empty string if not set
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ParseDurationISO8601 parses an ISO-8601 duration string (e.g. "PT30M", "P1D")
// into a time.Duration.
func ParseDurationISO8601(value string) (time.Duration, error) {
	d, err := duration.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", value, err)
	}
	return d.ToTimeDuration(), nil
}
