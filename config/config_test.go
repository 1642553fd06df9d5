package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCleanAndRateLimitKeys(t *testing.T) {
	var cfg Config
	require.NoError(t, Decode(map[string]interface{}{
		"clean_min_age":       "6h",
		"rate_limit_rps":      "5",
		"rate_limit_burst":    "10",
		"rate_limit_idle_ttl": "2m",
	}, &cfg))

	assert.Equal(t, 6*time.Hour, cfg.CleanMinAgeOrDefault())
	assert.Equal(t, RateLimit{RPS: 5, Burst: 10, IdleTTL: 2 * time.Minute}, cfg.APIRateLimit())
}

func TestAccessorFallbacks(t *testing.T) {
	var cfg Config
	assert.Equal(t, 24*time.Hour, cfg.CleanMinAgeOrDefault())
	assert.Equal(t, RateLimit{RPS: 30, Burst: 60, IdleTTL: 10 * time.Minute}, cfg.APIRateLimit())

	cfg.RateLimitRPS = 0.5
	assert.Equal(t, 1, cfg.APIRateLimit().Burst)
}
