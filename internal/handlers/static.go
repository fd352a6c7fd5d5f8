package handlers

import (
	"net/http"
	"time"
)

const (
	featuresLatency = 300 * time.Millisecond
	heroLatency     = 200 * time.Millisecond
)

func (a *API) Features(w http.ResponseWriter, r *http.Request) {
	if !a.simulateLatency(r, featuresLatency) {
		return
	}
	features, err := a.content.Features()
	if err != nil {
		a.log.Error().Err(err).Msg("features content unavailable")
		writeError(w, http.StatusInternalServerError, "Failed to fetch features data")
		return
	}
	writeJSON(w, http.StatusOK, features)
}

func (a *API) Hero(w http.ResponseWriter, r *http.Request) {
	if !a.simulateLatency(r, heroLatency) {
		return
	}
	hero, err := a.content.Hero()
	if err != nil {
		a.log.Error().Err(err).Msg("hero content unavailable")
		writeError(w, http.StatusInternalServerError, "Failed to fetch hero data")
		return
	}
	writeJSON(w, http.StatusOK, hero)
}

// simulateLatency reports false when the client went away while waiting.
func (a *API) simulateLatency(r *http.Request, d time.Duration) bool {
	if !a.cfg.SimulateLatency {
		return true
	}
	return a.sleep(r.Context(), d) == nil
}
