package cache

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the response caching layer.
type Config struct {
	// Enabled controls whether caching is active. When false, no
	// middleware is applied and all requests pass through uncached.
	Enabled bool

	// PolicyTTL is the TTL for the policy endpoint cache.
	PolicyTTL time.Duration

	// ICETTL is the TTL for the ICE server config endpoint cache.
	ICETTL time.Duration

	// MaxSize is the maximum number of entries per cache instance.
	MaxSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		PolicyTTL: 15 * time.Second,
		ICETTL:    5 * time.Minute,
		MaxSize:   1000,
	}
}

// ConfigFromEnv reads cache configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - BROKER_CACHE_ENABLED: "true" or "false" (default: "true")
//   - BROKER_CACHE_POLICY_TTL: duration in seconds (default: 15)
//   - BROKER_CACHE_ICE_TTL: duration in seconds (default: 300)
//   - BROKER_CACHE_MAX_SIZE: max entries per cache (default: 1000)
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("BROKER_CACHE_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("BROKER_CACHE_POLICY_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.PolicyTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("BROKER_CACHE_ICE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ICETTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("BROKER_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}

	return cfg
}
