package services

import (
	"sync"
	"time"

	"shojo-terminal/backend-go/internal/config"
	"shojo-terminal/backend-go/internal/models"
)

type routeEntry[T any] struct {
	value    T
	storedAt time.Time
}

// RouteCache holds the last good response per key. Entries never expire;
// the ttl only decides whether they are still fresh.
type RouteCache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]routeEntry[T]
}

func NewRouteCache[T any](ttl time.Duration, now func() time.Time) *RouteCache[T] {
	if now == nil {
		now = time.Now
	}
	return &RouteCache[T]{ttl: ttl, now: now, entries: make(map[string]routeEntry[T])}
}

// Get returns the stored value for key and whether it is younger than the ttl.
func (c *RouteCache[T]) Get(key string) (value T, fresh bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return value, false, false
	}
	return e.value, c.now().Sub(e.storedAt) < c.ttl, true
}

func (c *RouteCache[T]) Put(key string, value T) {
	c.mu.Lock()
	c.entries[key] = routeEntry[T]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *RouteCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RouteCaches groups the per-route caches built once at startup.
type RouteCaches struct {
	Tokens     *RouteCache[[]models.TokenView]
	NFTs       *RouteCache[[]models.NftView]
	Categories *RouteCache[[]models.CategoryView]
	Insights   *RouteCache[models.InsightsView]
}

func NewRouteCaches(cfg config.Config, now func() time.Time) *RouteCaches {
	return &RouteCaches{
		Tokens:     NewRouteCache[[]models.TokenView](cfg.RouteTTLTokens, now),
		NFTs:       NewRouteCache[[]models.NftView](cfg.RouteTTLNfts, now),
		Categories: NewRouteCache[[]models.CategoryView](cfg.RouteTTLCategories, now),
		Insights:   NewRouteCache[models.InsightsView](cfg.RouteTTLInsights, now),
	}
}
