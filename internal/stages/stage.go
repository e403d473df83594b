// Package stages implements the four remote calculation stages a flux is
// composed of: the electronic-structure run, density-matrix extraction,
// primitive-basis conversion and the indicator run. Every stage follows the
// same four-step lifecycle against the cluster: prepare inputs in the
// colony, stage them into scratch, execute the batch job, collect artifacts
// back into the colony.
package stages

import (
	"context"
	"fmt"
	"path"

	"github.com/qchemtools/corrflux/internal/jobs"
	"github.com/qchemtools/corrflux/internal/models"
)

// Kind is the closed set of stage kinds.
type Kind int

const (
	KindGaussian Kind = iota
	KindDMN
	KindDM2Prim
	KindIndicator
)

func (k Kind) String() string {
	switch k {
	case KindGaussian:
		return "gaussian"
	case KindDMN:
		return "dmn"
	case KindDM2Prim:
		return "dm2prim"
	case KindIndicator:
		return "inca"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token carries the identity and remote layout of one stage invocation
// through the stage lifecycle. The suffix keeps artifact names of the
// HF-reference branches disjoint inside the shared calculation directory.
type Token struct {
	Calculation models.CalculationID
	Spec        models.CalculationSpec
	Suffix      string // "", "hf" or "hfl"

	ColonyDir  string // per-calculation persistent dir
	ScratchDir string // per-calculation working dir
}

// NewToken lays out a stage token under the configured colony and scratch
// roots.
func NewToken(id models.CalculationID, spec models.CalculationSpec, suffix, colonyRoot, scratchRoot string) *Token {
	return &Token{
		Calculation: id,
		Spec:        spec,
		Suffix:      suffix,
		ColonyDir:   path.Join(colonyRoot, string(id)),
		ScratchDir:  path.Join(scratchRoot, string(id)),
	}
}

// BaseName is the artifact prefix of the base calculation.
func (t *Token) BaseName() string { return string(t.Calculation) }

// JobName is the artifact prefix of this branch.
func (t *Token) JobName() string {
	if t.Suffix == "" {
		return t.BaseName()
	}
	return t.BaseName() + "_" + t.Suffix
}

// Colony resolves an artifact name inside the calculation's colony dir.
func (t *Token) Colony(name string) string { return path.Join(t.ColonyDir, name) }

// Scratch resolves an artifact name inside the calculation's scratch dir.
func (t *Token) Scratch(name string) string { return path.Join(t.ScratchDir, name) }

// Runner executes one stage kind. Implementations share a session and are
// called sequentially by the orchestrator.
type Runner interface {
	Kind() Kind

	// Prepare generates and uploads the stage inputs into the colony.
	Prepare(ctx context.Context, tok *Token) error

	// Stage moves the required files from colony to scratch.
	Stage(ctx context.Context, tok *Token) error

	// Execute submits the batch job and waits for it to leave the queue.
	Execute(ctx context.Context, tok *Token) (jobs.JobID, error)

	// Collect moves artifacts back to the colony and verifies the
	// expected outputs exist.
	Collect(ctx context.Context, tok *Token) error
}

// PrepareError reports a failed input preparation.
type PrepareError struct {
	Stage Kind
	Job   string
	Err   error
}

func (e *PrepareError) Error() string {
	return fmt.Sprintf("prepare %s for %s: %v", e.Stage, e.Job, e.Err)
}

func (e *PrepareError) Unwrap() error { return e.Err }

// StagingError reports a failed colony-to-scratch move.
type StagingError struct {
	Stage Kind
	Job   string
	Err   error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("stage files for %s of %s: %v", e.Stage, e.Job, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// MissingOutputError reports an expected stage output that never appeared.
// The batch system treats a vanished job as finished, so this is where a
// crashed remote computation actually surfaces.
type MissingOutputError struct {
	Stage Kind
	Path  string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("%s did not produce %s", e.Stage, e.Path)
}
