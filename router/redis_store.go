package router

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the shared StatusStore for multi-instance
// deployments (provider_status.backend=redis).
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

// RedisStore is the multi-instance StatusStore: every replica behind a
// load balancer reads and writes the same provider cooldown state so a
// failure observed by one instance is honored by all of them.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and returns a ready StatusStore. It pings
// once at construction so startup fails fast on a bad address.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "secondbrain:router:status:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(provider string) string {
	return s.prefix + provider
}

// Get reports the best-effort availability status. Redis errors are treated
// as "no record" rather than surfaced — a transient Redis outage should not
// make every provider look unavailable.
func (s *RedisStore) Get(provider string) (Status, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key(provider)).Bytes()
	if err != nil {
		return Status{}, false
	}
	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return Status{}, false
	}
	return status, true
}

// Set persists a provider's status. When CooldownUntil is set, the key is
// given a matching TTL so an expired cooldown record disappears on its own
// instead of accumulating stale entries.
func (s *RedisStore) Set(provider string, status Status) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := json.Marshal(status)
	if err != nil {
		return
	}

	var ttl time.Duration
	if !status.CooldownUntil.IsZero() {
		if d := time.Until(status.CooldownUntil); d > 0 {
			ttl = d + time.Second
		}
	}
	s.client.Set(ctx, s.key(provider), raw, ttl)
}

// Delete clears a provider's status, returning it to the default-available
// state.
func (s *RedisStore) Delete(provider string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.client.Del(ctx, s.key(provider))
}

// Snapshot scans every status key under the prefix. Intended for
// diagnostics only — not on the request hot path.
func (s *RedisStore) Snapshot() map[string]Status {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(map[string]Status)
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var status Status
		if err := json.Unmarshal(raw, &status); err != nil {
			continue
		}
		out[key[len(s.prefix):]] = status
	}
	return out
}
