package catalog

import (
	"log/slog"
	"net/http"
	"time"

	"hexagono-backend/internal/cache"
	"hexagono-backend/internal/middleware"
	"hexagono-backend/internal/transport"
)

const cacheKey = "catalog:services"

type Handler struct {
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

func NewHandler(store cache.Cache, ttl time.Duration, log *slog.Logger) *Handler {
	if store == nil {
		store = cache.NewNoop()
	}
	return &Handler{cache: store, ttl: ttl, log: log}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var cached []Service
	if ok, err := cache.GetJSON(r.Context(), h.cache, cacheKey, &cached); err == nil && ok {
		transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"services": cached})
		return
	}

	services := Services()
	if err := cache.SetJSON(r.Context(), h.cache, cacheKey, services, h.ttl); err != nil {
		log.Warn("catalog cache write failed", slog.String("error", err.Error()))
	}

	log.Info("catalog list: ok", slog.Int("count", len(services)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"services": services})
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
