package cache

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs. Stats are cheap to recompute so they turn over quickly;
// popularity rankings shift slowly.
const (
	UserStatsTTL   = 5 * time.Minute
	PopularQuizTTL = time.Hour
	LeaderboardTTL = 10 * time.Minute
)

// Cache is a read-through JSON cache on Redis. A nil *Cache (or a Cache
// whose connection failed) is valid: every method becomes a no-op miss, so
// the server degrades to uncached queries instead of failing.
type Cache struct {
	rdb *redis.Client
}

// New connects to Redis using REDIS_ADDR. Returns a nil-client Cache when
// the address is unset or the ping fails; the caller keeps working without
// caching either way.
func New() *Cache {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Println("[cache] REDIS_ADDR not set, caching disabled")
		return &Cache{}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[cache] redis ping failed, caching disabled: %v", err)
		rdb.Close()
		return &Cache{}
	}

	log.Printf("[cache] connected to redis at %s", addr)
	return &Cache{rdb: rdb}
}

// Get unmarshals the cached value into dest. Returns false on miss, error,
// or disabled cache.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] get %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("[cache] unmarshal %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value as JSON with the given TTL. Failures are logged and
// swallowed.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("[cache] marshal %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
}

// Delete drops keys, typically to invalidate after a write.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[cache] delete %v: %v", keys, err)
	}
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
