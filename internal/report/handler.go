package report

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/refis-sim/refis-sim/internal/platform/httpx"
	"github.com/refis-sim/refis-sim/jobs"
)

// Enqueuer submits report rendering tasks to the queue.
type Enqueuer interface {
	EnqueueReportRender(ctx context.Context, payload jobs.ReportRenderPayload) (*asynq.TaskInfo, error)
}

// Handler serves the report endpoints: queueing a render and collecting
// the finished PDF.
type Handler struct {
	logger   *slog.Logger
	enqueuer Enqueuer
	store    *Store
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, enqueuer Enqueuer, store *Store) *Handler {
	return &Handler{logger: logger, enqueuer: enqueuer, store: store}
}

// MountRoutes registers the report routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/", h.queue)
		r.Get("/{id}", h.fetch)
	})
}

type queueRequest struct {
	Entity string `json:"entity"`
}

type queueResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
			return
		}
	}

	id := uuid.NewString()
	if err := h.store.SetStatus(r.Context(), id, StatusQueued); err != nil {
		h.logger.Error("queue report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.enqueuer.EnqueueReportRender(r.Context(), jobs.ReportRenderPayload{ID: id, Entity: req.Entity}); err != nil {
		h.logger.Error("enqueue report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, queueResponse{ID: id, Status: StatusQueued})
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	pdf, err := h.store.PDF(r.Context(), id)
	if err == nil {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=refis-report.pdf")
		_, _ = w.Write(pdf)
		return
	}
	if !errors.Is(err, ErrUnknownReport) {
		h.logger.Error("fetch report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	// No PDF yet: report the lifecycle state when the id is known.
	status, err := h.store.Status(r.Context(), id)
	if errors.Is(err, ErrUnknownReport) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown report id")
		return
	}
	if err != nil {
		h.logger.Error("report status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if status == StatusFailed {
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "report rendering failed")
		return
	}
	httpx.JSON(w, http.StatusAccepted, queueResponse{ID: id, Status: status})
}
