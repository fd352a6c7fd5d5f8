package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shojo-terminal/backend-go/internal/config"
	"shojo-terminal/backend-go/internal/content"
	"shojo-terminal/backend-go/internal/handlers"
	internalhttp "shojo-terminal/backend-go/internal/http"
	"shojo-terminal/backend-go/internal/logger"
	"shojo-terminal/backend-go/internal/services"
)

func main() {
	_ = godotenv.Load(
		".env",
		".env.local",
		"backend-go/.env",
		"backend-go/.env.local",
	)
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "shojo-backend"})

	cache := services.NewCache(cfg, log)
	client := services.NewCoinGeckoClient(cfg, cache, log)
	market := services.NewMarketService(cfg, client, services.NewMockGenerator(cfg.MockSeed), services.NewNarrator(cfg), log)
	docs := content.Load()
	if _, err := docs.Features(); err != nil {
		log.Warn().Err(err).Msg("features content unavailable")
	}
	if _, err := docs.Hero(); err != nil {
		log.Warn().Err(err).Msg("hero content unavailable")
	}

	routes := services.NewRouteCaches(cfg, time.Now)
	api := handlers.New(cfg, market, docs, routes, cache, log)
	h := internalhttp.NewRouter(cfg, api, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	log.Info().
		Str("addr", srv.Addr).
		Str("cache", cache.Backend()).
		Bool("openai_summary", cfg.SummaryEnabled()).
		Msg("shojo backend listening")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-stop
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
