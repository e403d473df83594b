// Package scheduler fans a batch of calculation specs out over a bounded
// worker pool, one cluster session per task.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/qchemtools/corrflux/internal/cluster"
	"github.com/qchemtools/corrflux/internal/models"
	"github.com/qchemtools/corrflux/internal/registry"
)

// SessionFactory opens a fresh cluster session for one task.
type SessionFactory func(ctx context.Context) (cluster.Session, error)

// TaskHandler executes one spec over an open session.
type TaskHandler interface {
	Handle(ctx context.Context, spec models.CalculationSpec) (*models.Outcome, error)
}

// HandlerFactory binds a task handler to a session.
type HandlerFactory func(session cluster.Session) TaskHandler

// Scheduler runs calculation batches.
type Scheduler struct {
	registry   *registry.Registry
	newSession SessionFactory
	newHandler HandlerFactory
	workers    int
	stagger    time.Duration
	log        zerolog.Logger
}

// New builds a scheduler. workers bounds concurrency; stagger spaces task
// launches so the login node is not hit by a burst of connections.
func New(reg *registry.Registry, newSession SessionFactory, newHandler HandlerFactory, workers int, stagger time.Duration, log zerolog.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		registry:   reg,
		newSession: newSession,
		newHandler: newHandler,
		workers:    workers,
		stagger:    stagger,
		log:        log,
	}
}

// RunBatch executes every spec and returns results in input order. A failed
// task never aborts its siblings: the error lands in its result slot.
// Every calculation touched by the batch is tagged with the batch id.
func (s *Scheduler) RunBatch(ctx context.Context, specs []models.CalculationSpec) []models.Result {
	batchID := uuid.NewString()
	out := make([]models.Result, len(specs))

	s.log.Info().Str("batch", batchID).Int("tasks", len(specs)).Int("workers", s.workers).Msg("batch started")

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, spec := range specs {
		if i > 0 && s.stagger > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.stagger):
			}
		}
		if err := ctx.Err(); err != nil {
			out[i] = models.Result{Spec: spec, Err: err}
			continue
		}

		i, spec := i, spec
		g.Go(func() error {
			out[i] = s.runTask(ctx, batchID, spec)
			return nil
		})
	}
	g.Wait()

	s.log.Info().Str("batch", batchID).Msg("batch finished")
	return out
}

func (s *Scheduler) runTask(ctx context.Context, batchID string, spec models.CalculationSpec) models.Result {
	res := models.Result{Spec: spec, Calculation: registry.Identify(spec)}

	session, err := s.newSession(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	defer session.Close()

	outcome, err := s.newHandler(session).Handle(ctx, spec)

	// The handler created the record even on failure, so the batch tag
	// applies either way.
	if tagErr := s.registry.AddTag(ctx, res.Calculation, "batch:"+batchID); tagErr != nil {
		s.log.Warn().Err(tagErr).Str("calculation", string(res.Calculation)).Msg("batch tag failed")
	}

	if err != nil {
		s.log.Error().Err(err).Str("spec", spec.String()).Msg("task failed")
		res.Err = err
		return res
	}
	res.Outcome = outcome
	return res
}
