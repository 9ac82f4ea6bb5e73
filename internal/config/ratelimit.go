package config

import "time"

// RateLimitConfig drives the distributed token-bucket limiter that
// fronts the whole API.  One bucket per key (client IP, user and
// route by default) lives in a Redis hash, so every server instance
// draws from the same budget; without Redis the limiter fails open.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads the limiter settings from environment
// variables and clamps them to workable values.  RATE_LIMIT_BURST and
// RATE_LIMIT_REFILL_EVERY are shorthands for a capacity override and
// a one-token refill cadence.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        boolOr("RATE_LIMIT_ENABLED", true),
		Capacity:       intOr("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   intOr("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: durOr("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            durOr("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    strOr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         strOr("RATE_LIMIT_PREFIX", "riviera:rl"),
		Debug:          boolOr("RATE_LIMIT_DEBUG", false),
	}
	if b := intOr("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.Capacity = b
	}
	if every := durOr("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		cfg.RefillTokens = 1
		cfg.RefillInterval = every
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// The bucket key must outlive a full refill cycle, or an idle
	// bucket expires and resets to full capacity too eagerly.
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}
