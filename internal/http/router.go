package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"shojo-terminal/backend-go/internal/config"
	"shojo-terminal/backend-go/internal/handlers"
)

func NewRouter(cfg config.Config, api *handlers.API, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", api.Health)
	mux.HandleFunc("GET /api/features", api.Features)
	mux.HandleFunc("GET /api/hero", api.Hero)
	mux.HandleFunc("GET /api/market/trending", api.TrendingTokens)
	mux.HandleFunc("GET /api/market/trending-nfts", api.TrendingNFTs)
	mux.HandleFunc("GET /api/market/trending-categories", api.TrendingCategories)
	mux.HandleFunc("GET /api/market/insights", api.Insights)
	mux.HandleFunc("GET /api/market/stream", api.StreamMarket)

	h := http.Handler(mux)
	h = withRecovery(log)(h)
	h = withLogging(log)(h)
	h = withRateLimit(cfg.RateLimitPerMin)(h)
	h = withRequestID(h)
	h = withCORS(h)
	return h
}
