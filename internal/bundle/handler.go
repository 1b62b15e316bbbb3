package bundle

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/refis-sim/refis-sim/internal/platform/httpx"
)

// Handler serves the bundle export/import endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the bundle routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/bundle", func(r chi.Router) {
		r.Get("/", h.export)
		r.Post("/", h.importBundle)
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Export(r.Context())
	if err != nil {
		h.logger.Error("export bundle", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="refis-bundle.json"`)
	httpx.JSON(w, http.StatusOK, b)
}

type importResponse struct {
	Items  int `json:"items"`
	Groups int `json:"groups"`
}

func (h *Handler) importBundle(w http.ResponseWriter, r *http.Request) {
	// Older exports carry fields this build no longer writes, so the
	// decode is deliberately lenient about unknown keys.
	var b Bundle
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	restored, err := h.service.Import(r.Context(), b)
	if err != nil {
		h.logger.Error("import bundle", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, importResponse{
		Items:  len(restored.Items),
		Groups: len(restored.Groups),
	})
}
