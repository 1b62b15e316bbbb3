package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/refis-sim/refis-sim/internal/bundle"
	"github.com/refis-sim/refis-sim/internal/export"
	"github.com/refis-sim/refis-sim/internal/observability"
	"github.com/refis-sim/refis-sim/internal/report"
	"github.com/refis-sim/refis-sim/internal/simulation"
	"github.com/refis-sim/refis-sim/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SimulationHandler *simulation.Handler
	BundleHandler     *bundle.Handler
	ExportHandler     *export.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.SimulationHandler != nil {
		params.SimulationHandler.MountRoutes(r)
	}
	if params.BundleHandler != nil {
		params.BundleHandler.MountRoutes(r)
	}
	if params.ExportHandler != nil {
		params.ExportHandler.MountRoutes(r)
	}
	if params.ReportHandler != nil {
		params.ReportHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
