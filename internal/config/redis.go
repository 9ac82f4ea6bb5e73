package config

import (
	"context"
	"crypto/tls"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis instance that backs the device
// session and cart stores, the feedback retry queue, the public
// response cache and the rate limiter.  The address comes from
// REDIS_HOST/REDIS_PORT, or REDIS_ADDR as a host:port shorthand;
// REDIS_PASSWORD, REDIS_DB and REDIS_TLS are optional.  A nil return
// means Redis is unreachable: cmd/server then swaps in the in-memory
// state store and the cache and limiter middlewares pass requests
// straight through.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	var tlsConf *tls.Config
	if boolOr("REDIS_TLS", false) {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        intOr("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
