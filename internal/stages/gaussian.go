package stages

import (
	"context"
	"fmt"

	"github.com/qchemtools/corrflux/internal/inputgen"
	"github.com/qchemtools/corrflux/internal/jobs"
)

// gaussianStage runs the electronic-structure program, producing the log,
// wavefunction and checkpoint artifacts everything downstream consumes.
type gaussianStage struct {
	base
}

func (s *gaussianStage) Kind() Kind { return KindGaussian }

func (s *gaussianStage) Prepare(ctx context.Context, tok *Token) error {
	job := tok.JobName()
	if err := s.ensureDirs(ctx, tok); err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}

	deck := inputgen.GaussianDeck(job, tok.Spec)
	if err := s.uploadText(ctx, deck, tok.Colony(job+".com")); err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}

	script := inputgen.GaussianScript(s.scriptParams(tok))
	if err := s.uploadText(ctx, script, tok.Colony(job+"_gaussian.slurm")); err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}
	s.log.Debug().Str("job", job).Msg("gaussian inputs prepared")
	return nil
}

func (s *gaussianStage) Stage(ctx context.Context, tok *Token) error {
	job := tok.JobName()
	if err := s.stageFiles(ctx, tok, job+".com", job+"_gaussian.slurm"); err != nil {
		return &StagingError{Stage: s.Kind(), Job: job, Err: err}
	}
	return nil
}

func (s *gaussianStage) Execute(ctx context.Context, tok *Token) (jobs.JobID, error) {
	return s.jobs.SubmitAndWait(ctx, tok.Scratch(tok.JobName()+"_gaussian.slurm"))
}

func (s *gaussianStage) Collect(ctx context.Context, tok *Token) error {
	job := tok.JobName()
	if err := s.collectAll(ctx, tok); err != nil {
		return fmt.Errorf("collect %s outputs: %w", s.Kind(), err)
	}

	// fchk=all writes a fixed-name checkpoint; claim it for this branch
	// before the next branch overwrites it.
	if exists, err := s.session.FileExists(ctx, tok.Colony("Test.FChk")); err == nil && exists {
		if err := s.cmds.Move(ctx, tok.Colony("Test.FChk"), tok.Colony(job+".fchk")); err != nil {
			return fmt.Errorf("claim checkpoint for %s: %w", job, err)
		}
	}

	for _, name := range []string{job + ".log", job + ".wfx"} {
		if err := s.requireColony(ctx, s.Kind(), tok, name); err != nil {
			return err
		}
	}
	return nil
}
