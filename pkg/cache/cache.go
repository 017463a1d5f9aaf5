// Package cache is a thin Redis layer with degraded-mode semantics: when
// Redis is unreachable every operation becomes a safe no-op (Get misses,
// Set/Del succeed silently), so caching and the token denylist never take
// the API down with them.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"drivebox/config"
)

var RDB *redis.Client
var Ctx = context.Background()

// Connect initialises the Redis client and verifies it with a ping.
// On failure the client stays nil and the package runs in degraded mode.
func Connect() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// Get unmarshals the cached value for key into dest.
// Returns true only on a hit with a decodable value.
func Get(key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}
	val, err := RDB.Get(Ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

// Set stores value under key for ttl. ttl <= 0 means no expiry.
func Set(key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return RDB.Set(Ctx, key, data, ttl).Err()
}

// Has reports whether key exists. Degraded mode always reports false,
// which means a revoked token is accepted while Redis is down; sessions
// fail open rather than locking every user out.
func Has(key string) bool {
	if RDB == nil {
		return false
	}
	n, err := RDB.Exists(Ctx, key).Result()
	return err == nil && n > 0
}

// Del removes keys.
func Del(keys ...string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Del(Ctx, keys...).Err()
}

// Forget removes a single key.
func Forget(key string) error { return Del(key) }
