package stages

import (
	"context"
	"fmt"

	"github.com/qchemtools/corrflux/internal/inputgen"
	"github.com/qchemtools/corrflux/internal/jobs"
)

// indicatorStage assembles the indicator input from the accumulated
// artifacts and runs the property evaluation.
type indicatorStage struct {
	base
}

func (s *indicatorStage) Kind() Kind { return KindIndicator }

func (s *indicatorStage) requiredInputs(tok *Token) []string {
	job := tok.JobName()
	required := []string{job + ".wfx"}
	if !tok.Spec.Method.IsHF() {
		required = append(required, job+".dm2p")
	}
	if tok.Spec.NeedsPairDensityReference() {
		required = append(required, job+"_hf.dm2p", job+"_hfl.dm2p")
	}
	return required
}

func (s *indicatorStage) Prepare(ctx context.Context, tok *Token) error {
	job := tok.JobName()

	deck := inputgen.IndicatorDeck(job, tok.Spec)
	if err := s.uploadText(ctx, deck, tok.Colony(job+".inp")); err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}

	script := inputgen.IndicatorScript(s.scriptParams(tok))
	if err := s.uploadText(ctx, script, tok.Colony(job+"_inca.slurm")); err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}

	for _, name := range s.requiredInputs(tok) {
		exists, err := s.session.FileExists(ctx, tok.Colony(name))
		if err != nil {
			return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
		}
		if !exists {
			return &PrepareError{Stage: s.Kind(), Job: job,
				Err: fmt.Errorf("required input %s not found", tok.Colony(name))}
		}
	}
	return nil
}

func (s *indicatorStage) Stage(ctx context.Context, tok *Token) error {
	job := tok.JobName()
	files := append([]string{job + ".inp", job + "_inca.slurm"}, s.requiredInputs(tok)...)
	if err := s.stageFiles(ctx, tok, files...); err != nil {
		return &StagingError{Stage: s.Kind(), Job: job, Err: err}
	}
	return nil
}

func (s *indicatorStage) Execute(ctx context.Context, tok *Token) (jobs.JobID, error) {
	return s.jobs.SubmitAndWait(ctx, tok.Scratch(tok.JobName()+"_inca.slurm"))
}

func (s *indicatorStage) Collect(ctx context.Context, tok *Token) error {
	if err := s.collectAll(ctx, tok); err != nil {
		return fmt.Errorf("collect %s outputs: %w", s.Kind(), err)
	}
	// Property artifacts are optional per request; the results collector
	// decides what is missing.
	return nil
}
