package export

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/refis-sim/refis-sim/internal/platform/httpx"
	"github.com/refis-sim/refis-sim/internal/simulation"
)

// Handler serves the CSV download endpoints.
type Handler struct {
	logger *slog.Logger
	repo   simulation.Repository
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, repo simulation.Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers the export routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/export", func(r chi.Router) {
		r.Get("/items.csv", h.items)
		r.Get("/groups.csv", h.groups)
	})
}

func (h *Handler) items(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListItems(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		h.logger.Error("list items for export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=refis_items.csv")
	if err := WriteItemsCSV(w, items); err != nil {
		h.logger.Error("stream items csv", slog.Any("error", err))
	}
}

func (h *Handler) groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.repo.ListGroups(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		h.logger.Error("list groups for export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=refis_groups.csv")
	if err := WriteGroupsCSV(w, groups); err != nil {
		h.logger.Error("stream groups csv", slog.Any("error", err))
	}
}
