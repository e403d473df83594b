// Package handler executes one calculation spec end to end: registry
// lookup, flux execution and result collection, with the status transitions
// between them.
package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/qchemtools/corrflux/internal/models"
	"github.com/qchemtools/corrflux/internal/registry"
	"github.com/qchemtools/corrflux/internal/results"
)

// FluxRunner runs the staged plan for one calculation.
type FluxRunner interface {
	Run(ctx context.Context, id models.CalculationID, spec models.CalculationSpec) error
}

// Handler decides per spec whether to compute, extend or serve from cache.
type Handler struct {
	registry *registry.Registry
	flux     FluxRunner
	results  *results.Manager
	log      zerolog.Logger
}

// New builds a handler.
func New(reg *registry.Registry, flux FluxRunner, res *results.Manager, log zerolog.Logger) *Handler {
	return &Handler{registry: reg, flux: flux, results: res, log: log}
}

// Handle resolves a spec against the registry and runs whatever is still
// missing. A completed calculation with all requested properties returns the
// cached outcome without touching the cluster. A completed calculation
// missing some properties reruns the flux for just those. Failures mark the
// record failed and surface the cause.
func (h *Handler) Handle(ctx context.Context, spec models.CalculationSpec) (*models.Outcome, error) {
	id, isNew, rec, err := h.registry.FindOrCreate(ctx, spec)
	if err != nil {
		return nil, err
	}

	missing := rec.MissingProperties()
	if !isNew && rec.Status == models.StatusCompleted && len(missing) == 0 {
		h.log.Info().Str("calculation", string(id)).Msg("serving cached calculation")
		outcome, err := h.results.LoadCached(id)
		if err != nil {
			// Registry says done but the local artifacts are gone;
			// recompute rather than fail the request.
			h.log.Warn().Err(err).Str("calculation", string(id)).Msg("cached results unreadable, recomputing")
			return h.compute(ctx, id, spec, spec.Properties)
		}
		return outcome, nil
	}

	// For a reopened calculation only the missing properties are
	// rerequested; a fresh or failed one computes the full request.
	props := spec.Properties
	if !isNew && rec.Status == models.StatusRunning && len(missing) > 0 && len(missing) < len(rec.Properties) {
		props = missing
	}
	return h.compute(ctx, id, spec, props)
}

func (h *Handler) compute(ctx context.Context, id models.CalculationID, spec models.CalculationSpec, props []string) (*models.Outcome, error) {
	if err := h.registry.MarkRunning(ctx, id); err != nil {
		return nil, err
	}

	start := time.Now()
	runSpec := spec.WithProperties(props)
	if err := h.flux.Run(ctx, id, runSpec); err != nil {
		h.fail(ctx, id, err)
		return nil, err
	}

	outcome, err := h.results.Collect(ctx, id, runSpec)
	if err != nil {
		h.fail(ctx, id, err)
		return nil, err
	}
	outcome.Elapsed = time.Since(start).Seconds()
	if err := h.results.WriteSummary(outcome); err != nil {
		h.log.Warn().Err(err).Str("calculation", string(id)).Msg("updating results summary failed")
	}

	if err := h.registry.MarkCompleted(ctx, id, outcome.Properties); err != nil {
		return nil, err
	}
	if err := h.registry.AddTag(ctx, id, fmt.Sprintf("duration:%.0fs", outcome.Elapsed)); err != nil {
		h.log.Warn().Err(err).Str("calculation", string(id)).Msg("duration tag failed")
	}

	h.log.Info().
		Str("calculation", string(id)).
		Float64("elapsed_s", outcome.Elapsed).
		Int("properties", len(outcome.Properties)).
		Msg("calculation completed")
	return outcome, nil
}

func (h *Handler) fail(ctx context.Context, id models.CalculationID, cause error) {
	if err := h.registry.MarkFailed(ctx, id, cause.Error()); err != nil {
		h.log.Error().Err(err).Str("calculation", string(id)).Msg("recording failure failed")
	}
}
