package pricing

import (
	"errors"
	"log/slog"
	"net/http"

	"hexagono-backend/internal/httpx"
	"hexagono-backend/internal/i18n"
	"hexagono-backend/internal/middleware"
	"hexagono-backend/internal/transport"
	"hexagono-backend/internal/validation"
)

type CalculateRequest struct {
	ServiceType        string   `json:"serviceType" validate:"required,oneof=LANDING_PAGE CORPORATE_WEB ECOMMERCE SOCIAL_MEDIA"`
	Features           []string `json:"features"`
	CustomRequirements string   `json:"customRequirements" validate:"omitempty,max=2000"`
}

type Handler struct {
	val *validation.Validator
	log *slog.Logger
}

func NewHandler(val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{val: val, log: log}
}

func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CalculateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("pricing calculate: invalid json")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgInvalidJSON), nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("pricing calculate: validation error")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	estimate, err := Calculate(req.ServiceType, req.Features, req.CustomRequirements)
	if err != nil {
		if errors.Is(err, ErrUnknownService) {
			transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgUnknownService), map[string]string{"serviceType": "oneof"})
			return
		}
		log.Error("pricing calculate: error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("pricing calculate: ok",
		slog.String("service_type", req.ServiceType),
		slog.Int("features", len(req.Features)),
		slog.Int64("total", estimate.TotalEstimate),
	)
	transport.WriteJSON(w, http.StatusOK, estimate)
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
