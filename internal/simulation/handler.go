package simulation

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/refis-sim/refis-sim/internal/observability"
	"github.com/refis-sim/refis-sim/internal/platform/httpx"
	"github.com/refis-sim/refis-sim/internal/refis"
)

// Handler serves the simulation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  *observability.Metrics
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		metrics:  metrics,
	}
}

// MountRoutes registers the simulation routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/simulations", func(r chi.Router) {
		r.Post("/items", h.createItem)
		r.Post("/items/preview", h.previewItem)
		r.Get("/items", h.listItems)
		r.Delete("/items/{id}", h.deleteItem)
		r.Post("/groups", h.createGroup)
		r.Get("/groups", h.listGroups)
		r.Delete("/groups/{id}", h.deleteGroup)
		r.Get("/summary", h.summary)
	})
	r.Route("/consolidation", func(r chi.Router) {
		r.Get("/items", h.consolidatedItems)
		r.Get("/groups", h.consolidatedGroups)
	})
}

type itemRequest struct {
	Entity           string `json:"entity" validate:"required"`
	Profile          string `json:"profile" validate:"required,oneof=PF/MEI PJ"`
	Description      string `json:"description" validate:"required"`
	Year             int    `json:"year" validate:"required,gte=2000,lte=2100"`
	Category         string `json:"category" validate:"required,oneof=iptu-taxas-imoveis issqn multas-formais multas-regulatorias taxa-inscricao-municipal"`
	Choice           string `json:"choice" validate:"required,oneof=lump-sum installment"`
	Installments     int    `json:"installments" validate:"gte=0,lte=120"`
	Principal        string `json:"principal" validate:"required"`
	Charges          string `json:"charges"`
	Correction       string `json:"correction"`
	DownPaymentMode  string `json:"downPaymentMode" validate:"omitempty,oneof=none amount percent"`
	DownPaymentValue string `json:"downPaymentValue"`
}

func (req itemRequest) params() ItemParams {
	return ItemParams{
		Entity:           req.Entity,
		Profile:          refis.Profile(req.Profile),
		Description:      req.Description,
		Year:             req.Year,
		Category:         refis.Category(req.Category),
		Choice:           refis.Choice(req.Choice),
		Installments:     req.Installments,
		Principal:        req.Principal,
		Charges:          req.Charges,
		Correction:       req.Correction,
		DownPaymentMode:  refis.DownPaymentMode(req.DownPaymentMode),
		DownPaymentValue: req.DownPaymentValue,
	}
}

type groupRequest struct {
	MemberIDs        []int64 `json:"memberIds" validate:"required,min=1,dive,gt=0"`
	Category         string  `json:"category" validate:"required,oneof=iptu-taxas-imoveis issqn multas-formais multas-regulatorias taxa-inscricao-municipal"`
	Choice           string  `json:"choice" validate:"required,oneof=lump-sum installment"`
	Installments     int     `json:"installments" validate:"gte=0,lte=120"`
	DownPaymentMode  string  `json:"downPaymentMode" validate:"omitempty,oneof=none amount percent"`
	DownPaymentValue string  `json:"downPaymentValue"`
}

func (h *Handler) decodeItem(w http.ResponseWriter, r *http.Request) (itemRequest, bool) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) previewItem(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	item, err := h.service.PreviewItem(req.params())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	item, err := h.service.CreateItem(r.Context(), req.params())
	if err != nil {
		h.logger.Error("create item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountSimulation("item")
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []refis.Item{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "item id must be an integer")
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	group, err := h.service.CreateGroup(r.Context(), GroupParams{
		MemberIDs:        req.MemberIDs,
		Category:         refis.Category(req.Category),
		Choice:           refis.Choice(req.Choice),
		Installments:     req.Installments,
		DownPaymentMode:  refis.DownPaymentMode(req.DownPaymentMode),
		DownPaymentValue: req.DownPaymentValue,
	})
	if err != nil {
		if errors.Is(err, refis.ErrMixedProfile) {
			httpx.Problem(w, http.StatusConflict, "Mixed Profiles", err.Error())
			return
		}
		h.logger.Error("create group", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountSimulation("group")
	httpx.JSON(w, http.StatusCreated, group)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		h.logger.Error("list groups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if groups == nil {
		groups = []refis.Group{}
	}
	httpx.JSON(w, http.StatusOK, groups)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "group id must be an integer")
		return
	}
	if err := h.service.DeleteGroup(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Summary(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		h.logger.Error("summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) consolidatedItems(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ConsolidatedItems(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		h.logger.Error("consolidate items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []refis.Entry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) consolidatedGroups(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ConsolidatedGroups(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		h.logger.Error("consolidate groups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []refis.Entry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}
