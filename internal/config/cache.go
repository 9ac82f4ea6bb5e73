package config

import (
	"strings"
	"time"
)

// CacheConfig drives the Redis response cache in front of the public
// browse endpoints (venue lists, menus, QR resolution).  Every QR
// scan hits those routes and the catalog changes rarely, so whole
// responses are cached for a short TTL.  With Enabled false, or when
// no Redis client could be built, the middleware passes requests
// straight through.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from environment variables,
// with defaults suited to read-mostly catalog data.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      boolOr("CACHE_ENABLED", true),
		Methods:      parseMethods(strOr("CACHE_METHODS", "GET")),
		TTL:          durOr("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strOr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       strOr("CACHE_PREFIX", "riviera:cache"),
		MaxBodyBytes: intOr("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// parseMethods normalizes a comma-separated HTTP method list.
func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
			m[p] = true
		}
	}
	return m
}
