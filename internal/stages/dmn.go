package stages

import (
	"context"
	"fmt"

	"github.com/qchemtools/corrflux/internal/inputgen"
	"github.com/qchemtools/corrflux/internal/jobs"
)

// dmnStage extracts density matrices from the electronic-structure log. The
// directive block appended to the log selects which matrices the extraction
// emits; with the HF/SD selectors one run yields the correlated matrix plus
// both reference matrices.
type dmnStage struct {
	base
}

func (s *dmnStage) Kind() Kind { return KindDMN }

func (s *dmnStage) Prepare(ctx context.Context, tok *Token) error {
	job := tok.JobName()
	logPath := tok.Colony(job + ".log")

	exists, err := s.session.FileExists(ctx, logPath)
	if err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}
	if !exists {
		return &PrepareError{Stage: s.Kind(), Job: job,
			Err: &MissingOutputError{Stage: KindGaussian, Path: logPath}}
	}

	// Reruns must not grow a second directive block.
	appended, err := s.cmds.AppendFile(ctx, logPath, inputgen.DMNDirectivesMarker, inputgen.DMNDirectives)
	if err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}
	if !appended {
		s.log.Debug().Str("job", job).Msg("log already carries dmn directives")
	}

	script := inputgen.DMNScript(s.scriptParams(tok))
	if err := s.uploadText(ctx, script, tok.Colony(job+"_dmn.slurm")); err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}
	return nil
}

func (s *dmnStage) Stage(ctx context.Context, tok *Token) error {
	job := tok.JobName()
	files := []string{job + ".log", job + "_dmn.slurm"}
	if tok.Spec.NeedsPairDensityReference() {
		files = append(files, job+".fchk")
	}
	if err := s.stageFiles(ctx, tok, files...); err != nil {
		return &StagingError{Stage: s.Kind(), Job: job, Err: err}
	}
	return nil
}

func (s *dmnStage) Execute(ctx context.Context, tok *Token) (jobs.JobID, error) {
	return s.jobs.SubmitAndWait(ctx, tok.Scratch(tok.JobName()+"_dmn.slurm"))
}

func (s *dmnStage) Collect(ctx context.Context, tok *Token) error {
	job := tok.JobName()
	if err := s.collectAll(ctx, tok); err != nil {
		return fmt.Errorf("collect %s outputs: %w", s.Kind(), err)
	}

	required := []string{job + ".dm2"}
	if tok.Spec.NeedsPairDensityReference() {
		// The selectors emit the reference matrices and the script
		// already converted the base matrix to the primitive basis.
		required = append(required, job+"_hf.dm2", job+"_hfl.dm2", job+".dm2p")
	}
	for _, name := range required {
		if err := s.requireColony(ctx, s.Kind(), tok, name); err != nil {
			return err
		}
	}
	return nil
}
