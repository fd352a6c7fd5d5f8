package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"shojo-terminal/backend-go/internal/models"
	"shojo-terminal/backend-go/internal/services"
)

const (
	defaultTokenLimit    = 15
	defaultNftLimit      = 7
	defaultCategoryLimit = 5
	maxLimit             = 100

	insightsKey = "insights"
)

func (a *API) TrendingTokens(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), defaultTokenLimit, 0, maxLimit)
	writeJSON(w, http.StatusOK, a.tokens(r.Context(), limit))
}

func (a *API) TrendingNFTs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), defaultNftLimit, 0, maxLimit)
	items, _ := routeList(r.Context(), a.routes.NFTs, limit, defaultNftLimit, a.market.TrendingNFTs, a.log.With().Str("route", "trending-nfts").Logger())
	writeJSON(w, http.StatusOK, items)
}

func (a *API) TrendingCategories(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), defaultCategoryLimit, 0, maxLimit)
	items, meta := routeList(r.Context(), a.routes.Categories, limit, defaultCategoryLimit, a.market.TrendingCategories, a.log.With().Str("route", "trending-categories").Logger())
	if len(items) == 0 && limit > 0 && meta.Err != "" {
		writeError(w, http.StatusInternalServerError, "Failed to fetch trending categories")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) Insights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.insights(r.Context()))
}

func (a *API) tokens(ctx context.Context, limit int) []models.TokenView {
	items, _ := routeList(ctx, a.routes.Tokens, limit, defaultTokenLimit, a.market.TrendingTokens, a.log.With().Str("route", "trending").Logger())
	return items
}

func (a *API) insights(ctx context.Context) models.InsightsView {
	if v, fresh, ok := a.routes.Insights.Get(insightsKey); ok && fresh {
		return v
	}
	v, meta := a.market.Insights(ctx)
	if !meta.Degraded() {
		a.log.Debug().Str("route", "insights").Str("fetched_at", meta.FetchedAt).Msg("route cache refreshed")
		a.routes.Insights.Put(insightsKey, v)
		return v
	}
	if cached, _, ok := a.routes.Insights.Get(insightsKey); ok {
		a.log.Info().Str("route", "insights").Str("reason", meta.Err).Msg("returning expired cached insights")
		return cached
	}
	return v
}

type listFetcher[T any] func(ctx context.Context, limit int) ([]T, services.SnapshotMeta)

// routeList serves a list route from the route cache. Lists are fetched at
// least def long so one entry serves every smaller limit, then cut to limit.
// Synthesized results are never cached and lose to an expired entry.
func routeList[T any](ctx context.Context, cache *services.RouteCache[[]T], limit int, def int, fetch listFetcher[T], log zerolog.Logger) ([]T, services.SnapshotMeta) {
	if limit <= 0 {
		return []T{}, services.SnapshotMeta{Source: services.SourceEmpty}
	}
	size := max(limit, def)
	key := strconv.Itoa(size)
	if cached, fresh, ok := cache.Get(key); ok && fresh {
		return head(cached, limit), services.SnapshotMeta{Source: "cache"}
	}

	items, meta := fetch(ctx, size)
	if !meta.Degraded() && len(items) > 0 {
		log.Debug().Str("key", key).Str("fetched_at", meta.FetchedAt).Int("items", len(items)).Msg("route cache refreshed")
		cache.Put(key, items)
		return head(items, limit), meta
	}
	if cached, _, ok := cache.Get(key); ok {
		log.Info().Str("source", meta.Source).Str("reason", meta.Err).Msg("returning expired cached data")
		return head(cached, limit), services.SnapshotMeta{Source: "stale_cache", Err: meta.Err}
	}
	return head(items, limit), meta
}

func head[T any](items []T, limit int) []T {
	if items == nil {
		return []T{}
	}
	if len(items) <= limit {
		return items
	}
	return items[:limit]
}
