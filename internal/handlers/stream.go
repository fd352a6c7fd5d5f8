package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"shojo-terminal/backend-go/internal/services"
)

// StreamMarket pushes trending tokens and insights as server-sent events.
func (a *API) StreamMarket(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusBadRequest)
		return
	}
	limit := parseIntParam(r.URL.Query().Get("limit"), defaultTokenLimit, 0, maxLimit)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, unsubscribe := a.feed.Subscribe(r.Context(), limit, a.cfg.StreamInterval)
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			writeEvent(w, "trending", map[string]any{"tsISO": snap.TsISO, "tokens": snap.Tokens})
			writeEvent(w, "insights", snap.Insights)
			flusher.Flush()
		}
	}
}

func (a *API) loadFeed(ctx context.Context, limit int) services.FeedSnapshot {
	return services.FeedSnapshot{
		TsISO:    nowISO(),
		Tokens:   a.tokens(ctx, limit),
		Insights: a.insights(ctx),
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
