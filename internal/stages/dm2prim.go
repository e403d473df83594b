package stages

import (
	"context"
	"fmt"

	"github.com/qchemtools/corrflux/internal/inputgen"
	"github.com/qchemtools/corrflux/internal/jobs"
)

// dm2primStage converts a density matrix into the primitive basis, pairing
// the branch's .dm2 with the checkpoint of its electronic-structure run.
type dm2primStage struct {
	base
}

func (s *dm2primStage) Kind() Kind { return KindDM2Prim }

func (s *dm2primStage) Prepare(ctx context.Context, tok *Token) error {
	job := tok.JobName()

	// Older runs may still carry the fixed-name checkpoint.
	fchk := tok.Colony(job + ".fchk")
	if exists, err := s.session.FileExists(ctx, fchk); err == nil && !exists {
		if legacy, err := s.session.FileExists(ctx, tok.Colony("Test.FChk")); err == nil && legacy {
			if err := s.cmds.Move(ctx, tok.Colony("Test.FChk"), fchk); err != nil {
				return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
			}
		}
	}

	for _, name := range []string{job + ".dm2", job + ".fchk"} {
		exists, err := s.session.FileExists(ctx, tok.Colony(name))
		if err != nil {
			return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
		}
		if !exists {
			return &PrepareError{Stage: s.Kind(), Job: job,
				Err: fmt.Errorf("required input %s not found", tok.Colony(name))}
		}
	}

	script := inputgen.DM2PrimScript(s.scriptParams(tok))
	if err := s.uploadText(ctx, script, tok.Colony(job+"_dm2prim.slurm")); err != nil {
		return &PrepareError{Stage: s.Kind(), Job: job, Err: err}
	}
	return nil
}

func (s *dm2primStage) Stage(ctx context.Context, tok *Token) error {
	job := tok.JobName()
	if err := s.stageFiles(ctx, tok, job+"_dm2prim.slurm", job+".dm2", job+".fchk"); err != nil {
		return &StagingError{Stage: s.Kind(), Job: job, Err: err}
	}
	return nil
}

func (s *dm2primStage) Execute(ctx context.Context, tok *Token) (jobs.JobID, error) {
	return s.jobs.SubmitAndWait(ctx, tok.Scratch(tok.JobName()+"_dm2prim.slurm"))
}

func (s *dm2primStage) Collect(ctx context.Context, tok *Token) error {
	if err := s.collectAll(ctx, tok); err != nil {
		return fmt.Errorf("collect %s outputs: %w", s.Kind(), err)
	}
	return s.requireColony(ctx, s.Kind(), tok, tok.JobName()+".dm2p")
}
