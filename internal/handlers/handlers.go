package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"shojo-terminal/backend-go/internal/config"
	"shojo-terminal/backend-go/internal/models"
	"shojo-terminal/backend-go/internal/services"
)

// MarketSource is the market data library behind the routes.
type MarketSource interface {
	TrendingTokens(ctx context.Context, limit int) ([]models.TokenView, services.SnapshotMeta)
	TrendingNFTs(ctx context.Context, limit int) ([]models.NftView, services.SnapshotMeta)
	TrendingCategories(ctx context.Context, limit int) ([]models.CategoryView, services.SnapshotMeta)
	Insights(ctx context.Context) (models.InsightsView, services.SnapshotMeta)
	Ping(ctx context.Context) error
}

type ContentSource interface {
	Features() ([]models.FeatureData, error)
	Hero() (models.HeroData, error)
}

type API struct {
	cfg     config.Config
	market  MarketSource
	content ContentSource
	routes  *services.RouteCaches
	cache   services.Cache
	feed    *services.MarketFeed
	log     zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func New(cfg config.Config, market MarketSource, content ContentSource, routes *services.RouteCaches, cache services.Cache, log zerolog.Logger) *API {
	if routes == nil {
		routes = services.NewRouteCaches(cfg, time.Now)
	}
	a := &API{
		cfg:     cfg,
		market:  market,
		content: content,
		routes:  routes,
		cache:   cache,
		log:     log.With().Str("component", "handlers").Logger(),
		sleep:   sleepContext,
	}
	a.feed = services.NewMarketFeed(a.loadFeed, 3*cfg.RequestTimeout)
	return a
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func parseIntParam(v string, def int, min int, max int) int {
	if v == "" {
		return def
	}
	var out int
	_, err := fmt.Sscanf(v, "%d", &out)
	if err != nil {
		return def
	}
	if out < min {
		return min
	}
	if out > max {
		return max
	}
	return out
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
