package services

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shojo-terminal/backend-go/internal/config"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Backend() string
}

type RedisCache struct {
	client *redis.Client
}

// MemoryCache keeps entries for the process lifetime unless a ttl is given.
type MemoryCache struct {
	items *gocache.Cache
}

// NewCache prefers Redis and falls back to memory when REDIS_URL is unset or unreachable.
func NewCache(cfg config.Config, log zerolog.Logger) Cache {
	if cfg.RedisURL == "" {
		return NewMemoryCache()
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("invalid REDIS_URL, using memory cache")
		return NewMemoryCache()
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, using memory cache")
		_ = client.Close()
		return NewMemoryCache()
	}
	return &RedisCache{client: client}
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *RedisCache) Backend() string { return "redis" }

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	exp := gocache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	m.items.Set(key, val, exp)
	return nil
}

func (m *MemoryCache) Backend() string { return "memory" }

func MarshalCache(v any) ([]byte, error) {
	return json.Marshal(v)
}

func UnmarshalCache(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
