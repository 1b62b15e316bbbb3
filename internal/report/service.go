package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/refis-sim/refis-sim/internal/simulation"
)

// Renderer turns HTML into a PDF document.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Service assembles the report data, renders it and files the result.
type Service struct {
	logger   *slog.Logger
	sim      *simulation.Service
	renderer Renderer
	store    *Store
	now      func() time.Time
}

// NewService constructs the report service.
func NewService(logger *slog.Logger, sim *simulation.Service, renderer Renderer, store *Store) *Service {
	return &Service{
		logger:   logger,
		sim:      sim,
		renderer: renderer,
		store:    store,
		now:      time.Now,
	}
}

// Generate builds and renders the report for the given identifier. It is
// executed by the background worker; the store carries failure state
// back to the polling client.
func (s *Service) Generate(ctx context.Context, id, entity string) error {
	if err := s.store.SetStatus(ctx, id, StatusProcessing); err != nil {
		return err
	}
	pdf, err := s.render(ctx, entity)
	if err != nil {
		s.logger.Error("render report", slog.String("id", id), slog.Any("error", err))
		if serr := s.store.SetStatus(ctx, id, StatusFailed); serr != nil {
			return serr
		}
		return err
	}
	return s.store.SavePDF(ctx, id, pdf)
}

func (s *Service) render(ctx context.Context, entity string) ([]byte, error) {
	data := Data{GeneratedAt: s.now(), Entity: entity}

	var err error
	if data.Items, err = s.sim.ListItems(ctx, entity); err != nil {
		return nil, err
	}
	if data.Groups, err = s.sim.ListGroups(ctx, entity); err != nil {
		return nil, err
	}
	if data.Summary, err = s.sim.Summary(ctx, entity); err != nil {
		return nil, err
	}
	if data.ItemEntries, err = s.sim.ConsolidatedItems(ctx, entity); err != nil {
		return nil, err
	}
	if data.GroupEntries, err = s.sim.ConsolidatedGroups(ctx, entity); err != nil {
		return nil, err
	}

	html, err := BuildHTML(data)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderHTML(ctx, html)
}
