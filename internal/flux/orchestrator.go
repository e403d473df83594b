package flux

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/qchemtools/corrflux/internal/cluster"
	"github.com/qchemtools/corrflux/internal/jobs"
	"github.com/qchemtools/corrflux/internal/models"
	"github.com/qchemtools/corrflux/internal/stages"
)

// Error reports which stage invocation sank a flux.
type Error struct {
	Stage  stages.Kind
	Suffix string
	Err    error
}

func (e *Error) Error() string {
	if e.Suffix != "" {
		return fmt.Sprintf("flux stage %s[%s]: %v", e.Stage, e.Suffix, e.Err)
	}
	return fmt.Sprintf("flux stage %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Orchestrator runs flux plans over one cluster session. Stages execute
// strictly in plan order; the first failure aborts the remaining steps.
type Orchestrator struct {
	runners     map[stages.Kind]stages.Runner
	colonyRoot  string
	scratchRoot string
	cmds        *cluster.Commands // scratch cleanup, nil in tests
	log         zerolog.Logger
}

// New builds an orchestrator with the production stage table.
func New(session cluster.Session, jm *jobs.Manager, colonyRoot, scratchRoot string, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		runners:     stages.NewRunners(session, jm, log),
		colonyRoot:  colonyRoot,
		scratchRoot: scratchRoot,
		cmds:        cluster.NewCommands(session),
		log:         log,
	}
}

// NewWithRunners builds an orchestrator with an injected stage table.
func NewWithRunners(runners map[stages.Kind]stages.Runner, colonyRoot, scratchRoot string, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		runners:     runners,
		colonyRoot:  colonyRoot,
		scratchRoot: scratchRoot,
		log:         log,
	}
}

// Run executes the plan for a spec. Each stage invocation goes through the
// full prepare/stage/execute/collect lifecycle before the next one starts.
func (o *Orchestrator) Run(ctx context.Context, id models.CalculationID, spec models.CalculationSpec) error {
	plan := BuildPlan(spec)
	o.log.Info().
		Str("calculation", string(id)).
		Int("steps", len(plan)).
		Str("spec", spec.String()).
		Msg("flux started")

	for _, step := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.runStep(ctx, id, step); err != nil {
			return &Error{Stage: step.Kind, Suffix: step.Suffix, Err: err}
		}
	}

	// The colony keeps everything worth keeping; scratch is disposable.
	if o.cmds != nil {
		scratch := stages.NewToken(id, spec, "", o.colonyRoot, o.scratchRoot).ScratchDir
		if err := o.cmds.RemoveDir(ctx, scratch); err != nil {
			o.log.Warn().Err(err).Str("dir", scratch).Msg("scratch cleanup failed")
		}
	}

	o.log.Info().Str("calculation", string(id)).Msg("flux finished")
	return nil
}

func (o *Orchestrator) runStep(ctx context.Context, id models.CalculationID, step Step) error {
	runner, ok := o.runners[step.Kind]
	if !ok {
		return fmt.Errorf("no runner for stage %s", step.Kind)
	}

	tok := stages.NewToken(id, step.Spec, step.Suffix, o.colonyRoot, o.scratchRoot)
	log := o.log.With().
		Str("calculation", string(id)).
		Str("stage", step.Kind.String()).
		Str("job", tok.JobName()).
		Logger()

	log.Debug().Msg("prepare")
	if err := runner.Prepare(ctx, tok); err != nil {
		return err
	}
	log.Debug().Msg("stage")
	if err := runner.Stage(ctx, tok); err != nil {
		return err
	}
	jobID, err := runner.Execute(ctx, tok)
	if err != nil {
		return err
	}
	log.Info().Str("job_id", string(jobID)).Msg("stage job finished")
	return runner.Collect(ctx, tok)
}
