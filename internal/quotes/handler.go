package quotes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hexagono-backend/internal/httpx"
	"hexagono-backend/internal/i18n"
	"hexagono-backend/internal/middleware"
	"hexagono-backend/internal/pricing"
	"hexagono-backend/internal/transport"
	"hexagono-backend/internal/validation"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("quote create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgInvalidJSON), nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("quote create: validation error")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	quote, err := h.service.Create(ctx, req)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownService) {
			transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgUnknownService), map[string]string{"serviceType": "oneof"})
			return
		}
		log.Error("quote create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("quote create: ok",
		slog.String("quote_id", quote.ID),
		slog.String("quote_number", quote.QuoteNumber),
		slog.String("service_type", quote.ServiceType),
	)
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"message":     i18n.T(i18n.MsgQuoteCreated),
		"quoteNumber": quote.QuoteNumber,
		"accessToken": quote.AccessToken,
	})
}

func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	token := strings.TrimSpace(chi.URLParam(r, "token"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := h.service.Track(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			log.Warn("quote track: malformed token")
			transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgInvalidToken), nil)
			return
		}
		if errors.Is(err, ErrNotFound) {
			log.Warn("quote track: not found")
			transport.WriteError(w, http.StatusNotFound, i18n.T(i18n.MsgQuoteNotFound), nil)
			return
		}
		log.Error("quote track: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("quote track: ok", slog.String("quote_number", view.QuoteNumber))
	transport.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin quotes list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{
		Status:      strings.TrimSpace(r.URL.Query().Get("status")),
		ServiceType: strings.TrimSpace(r.URL.Query().Get("serviceType")),
		Priority:    strings.TrimSpace(r.URL.Query().Get("priority")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.List(ctx, filter, limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"status": "oneof"})
			return
		}
		if errors.Is(err, pricing.ErrUnknownService) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"serviceType": "oneof"})
			return
		}
		if errors.Is(err, ErrInvalidPriority) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"priority": "oneof"})
			return
		}
		log.Error("admin quotes list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("admin quotes list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) AdminGetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin quote get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	quote, err := h.service.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin quote get: not found", slog.String("quote_id", id))
			transport.WriteError(w, http.StatusNotFound, i18n.T(i18n.MsgQuoteNotFound), nil)
			return
		}
		log.Error("admin quote get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("admin quote get: ok", slog.String("quote_id", id))
	transport.WriteJSON(w, http.StatusOK, quote)
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin quote status: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req StatusUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin quote status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgInvalidJSON), nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("admin quote status: validation error")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	changedBy := middleware.AdminUserFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.service.UpdateStatus(ctx, id, req.Status, changedBy, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), map[string]string{"status": "oneof"})
		case errors.Is(err, ErrMissingActor):
			transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), map[string]string{"changedBy": "required"})
		case errors.Is(err, ErrInvalidTransition):
			log.Warn("admin quote status: transition rejected",
				slog.String("quote_id", id),
				slog.String("status", req.Status),
			)
			transport.WriteError(w, http.StatusConflict, i18n.T(i18n.MsgInvalidTransition), nil)
		case errors.Is(err, ErrNotFound):
			log.Warn("admin quote status: not found", slog.String("quote_id", id))
			transport.WriteError(w, http.StatusNotFound, i18n.T(i18n.MsgQuoteNotFound), nil)
		default:
			log.Error("admin quote status: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		}
		return
	}

	log.Info("admin quote status: ok",
		slog.String("quote_id", id),
		slog.String("previous_status", updated.PreviousStatus),
		slog.String("status", updated.Status),
		slog.String("changed_by", changedBy),
	)
	transport.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) AdminStatusHistory(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin quote history: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	current, history, err := h.service.StatusHistory(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin quote history: not found", slog.String("quote_id", id))
			transport.WriteError(w, http.StatusNotFound, i18n.T(i18n.MsgQuoteNotFound), nil)
			return
		}
		log.Error("admin quote history: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("admin quote history: ok", slog.String("quote_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"currentStatus": current,
		"statusHistory": history,
	})
}

func (h *Handler) AdminAddNote(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin quote note: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req NoteRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin quote note: invalid json")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgInvalidJSON), nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("admin quote note: validation error")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	quote, err := h.service.AddNote(ctx, id, req, middleware.AdminUserFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, ErrMissingActor) {
			transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), map[string]string{"author": "required"})
			return
		}
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin quote note: not found", slog.String("quote_id", id))
			transport.WriteError(w, http.StatusNotFound, i18n.T(i18n.MsgQuoteNotFound), nil)
			return
		}
		log.Error("admin quote note: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("admin quote note: ok", slog.String("quote_id", id), slog.Bool("internal", req.IsInternal))
	transport.WriteJSON(w, http.StatusOK, quote)
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin quote update: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin quote update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgInvalidJSON), nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("admin quote update: validation error")
		transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	quote, err := h.service.UpdateAdminFields(ctx, id, req)
	if err != nil {
		if errors.Is(err, ErrInvalidPriority) {
			transport.WriteError(w, http.StatusBadRequest, i18n.T(i18n.MsgValidationError), map[string]string{"priority": "oneof"})
			return
		}
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin quote update: not found", slog.String("quote_id", id))
			transport.WriteError(w, http.StatusNotFound, i18n.T(i18n.MsgQuoteNotFound), nil)
			return
		}
		log.Error("admin quote update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("admin quote update: ok", slog.String("quote_id", id))
	transport.WriteJSON(w, http.StatusOK, quote)
}

func (h *Handler) AdminSendReminder(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin quote reminder: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sent, err := h.service.SendReminder(ctx, id)
	if err != nil {
		log.Error("admin quote reminder: error", slog.String("quote_id", id), slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	message := i18n.MsgReminderNotNeeded
	if sent {
		message = i18n.MsgReminderSent
	}
	log.Info("admin quote reminder: ok", slog.String("quote_id", id), slog.Bool("sent", sent))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reminderSent": sent,
		"message":      i18n.T(message),
	})
}

func (h *Handler) CronBulkReminders(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	report, err := h.service.SendBulkReminders(ctx)
	if err != nil {
		log.Error("cron reminders: error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, i18n.T(i18n.MsgDatabaseError), nil)
		return
	}

	log.Info("cron reminders: ok",
		slog.Int("eligible", report.Eligible),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	)
	transport.WriteJSON(w, http.StatusOK, report)
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
