package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"shojo-terminal/backend-go/internal/models"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := []string{}
	missing := []string{}
	depsStatus := map[string]models.DepStatus{}
	if err := a.market.Ping(ctx); err != nil {
		a.log.Warn().Err(err).Msg("coingecko ping failed")
		missing = append(missing, "coingecko_unreachable")
		depsStatus["coingecko"] = models.DepStatus{Ok: false, Error: upstreamReason(err)}
	} else {
		deps = append(deps, "coingecko")
		depsStatus["coingecko"] = models.DepStatus{Ok: true}
	}

	backend := "none"
	if a.cache != nil {
		backend = a.cache.Backend()
		deps = append(deps, "cache:"+backend)
		depsStatus["cache"] = models.DepStatus{Ok: true}
	}

	if _, err := a.content.Features(); err != nil {
		missing = append(missing, "features_content")
	}
	if _, err := a.content.Hero(); err != nil {
		missing = append(missing, "hero_content")
	}

	resp := models.HealthResponse{
		Ok:          len(missing) == 0,
		TsISO:       nowISO(),
		Service:     "backend-go",
		Version:     os.Getenv("SERVICE_VERSION"),
		Deps:        deps,
		DepsStatus:  depsStatus,
		DataMissing: missing,
		Features: map[string]bool{
			"openai_summaries_enabled": a.cfg.SummaryEnabled(),
			"redis_cache_enabled":      backend == "redis",
			"simulated_latency":        a.cfg.SimulateLatency,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}
