package stages

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/qchemtools/corrflux/internal/cluster"
	"github.com/qchemtools/corrflux/internal/inputgen"
	"github.com/qchemtools/corrflux/internal/jobs"
)

// base carries the collaborators every stage runner shares.
type base struct {
	session cluster.Session
	cmds    *cluster.Commands
	jobs    *jobs.Manager
	log     zerolog.Logger
}

func newBase(session cluster.Session, jm *jobs.Manager, log zerolog.Logger) base {
	return base{
		session: session,
		cmds:    cluster.NewCommands(session),
		jobs:    jm,
		log:     log,
	}
}

// NewRunners builds the stage table used by the orchestrator.
func NewRunners(session cluster.Session, jm *jobs.Manager, log zerolog.Logger) map[Kind]Runner {
	b := newBase(session, jm, log)
	return map[Kind]Runner{
		KindGaussian:  &gaussianStage{base: b},
		KindDMN:       &dmnStage{base: b},
		KindDM2Prim:   &dm2primStage{base: b},
		KindIndicator: &indicatorStage{base: b},
	}
}

func (b *base) ensureDirs(ctx context.Context, tok *Token) error {
	if err := b.cmds.MkdirAll(ctx, tok.ColonyDir); err != nil {
		return err
	}
	return b.cmds.MkdirAll(ctx, tok.ScratchDir)
}

// uploadText stages generated input content through a local temp file.
func (b *base) uploadText(ctx context.Context, content, remotePath string) error {
	f, err := os.CreateTemp("", "corrflux-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return b.session.UploadFile(ctx, f.Name(), remotePath)
}

// stageFiles moves named artifacts from colony to scratch.
func (b *base) stageFiles(ctx context.Context, tok *Token, names ...string) error {
	for _, name := range names {
		if err := b.cmds.Move(ctx, tok.Colony(name), tok.Scratch(name)); err != nil {
			return err
		}
	}
	return nil
}

// collectAll moves everything in scratch back into the colony.
func (b *base) collectAll(ctx context.Context, tok *Token) error {
	return b.cmds.MoveGlob(ctx, tok.ScratchDir+"/*", tok.ColonyDir)
}

// requireColony verifies an expected artifact landed in the colony.
func (b *base) requireColony(ctx context.Context, kind Kind, tok *Token, name string) error {
	exists, err := b.session.FileExists(ctx, tok.Colony(name))
	if err != nil {
		return fmt.Errorf("check %s: %w", tok.Colony(name), err)
	}
	if !exists {
		return &MissingOutputError{Stage: kind, Path: tok.Colony(name)}
	}
	return nil
}

func (b *base) scriptParams(tok *Token) inputgen.ScriptParams {
	return inputgen.ScriptParams{
		JobName:     tok.JobName(),
		BaseName:    tok.BaseName(),
		ScratchDir:  tok.ScratchDir,
		ColonyDir:   tok.ColonyDir,
		ConvertBase: tok.Spec.NeedsPairDensityReference(),
	}
}
