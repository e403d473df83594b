package flux

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qchemtools/corrflux/internal/jobs"
	"github.com/qchemtools/corrflux/internal/logging"
	"github.com/qchemtools/corrflux/internal/models"
	"github.com/qchemtools/corrflux/internal/stages"
)

func planSpec(t *testing.T, method string, props ...string) models.CalculationSpec {
	t.Helper()
	mol, err := models.NewMolecule("he", 0, 1)
	require.NoError(t, err)
	m, err := models.NewMethod(method, 0)
	require.NoError(t, err)
	spec, err := models.NewSpec(mol, m, "cc-pvdz", models.SinglePoint, models.Grid{}, props)
	require.NoError(t, err)
	return spec
}

func kinds(plan []Step) []string {
	out := make([]string, len(plan))
	for i, s := range plan {
		out[i] = s.Kind.String()
		if s.Suffix != "" {
			out[i] += ":" + s.Suffix
		}
	}
	return out
}

func TestBuildPlanHF(t *testing.T) {
	plan := BuildPlan(planSpec(t, "hf", "density"))
	assert.Equal(t, []string{"gaussian", "inca"}, kinds(plan))
}

func TestBuildPlanCorrelated(t *testing.T) {
	plan := BuildPlan(planSpec(t, "mp2", "density"))
	assert.Equal(t, []string{"gaussian", "dmn", "dm2prim", "inca"}, kinds(plan))
}

func TestBuildPlanPairDensitySevenCalls(t *testing.T) {
	plan := BuildPlan(planSpec(t, "casscf(2,6)", "nucleus"))
	assert.Equal(t, []string{
		"gaussian", "gaussian:hf", "gaussian:hfl",
		"dmn",
		"dm2prim:hf", "dm2prim:hfl",
		"inca",
	}, kinds(plan))

	// The reference branches run Hartree-Fock, the base keeps its method.
	assert.True(t, plan[1].Spec.Method.IsHF())
	assert.True(t, plan[2].Spec.Method.IsHF())
	assert.True(t, plan[0].Spec.Method.IsCASSCF())
	assert.True(t, plan[3].Spec.Method.IsCASSCF())
}

// recordingRunner logs lifecycle calls for one stage kind.
type recordingRunner struct {
	kind  stages.Kind
	calls *[]string
	fail  map[string]error
}

func (r *recordingRunner) Kind() stages.Kind { return r.kind }

func (r *recordingRunner) record(step string, tok *stages.Token) error {
	*r.calls = append(*r.calls, fmt.Sprintf("%s/%s/%s", r.kind, step, tok.JobName()))
	return r.fail[step]
}

func (r *recordingRunner) Prepare(ctx context.Context, tok *stages.Token) error {
	return r.record("prepare", tok)
}

func (r *recordingRunner) Stage(ctx context.Context, tok *stages.Token) error {
	return r.record("stage", tok)
}

func (r *recordingRunner) Execute(ctx context.Context, tok *stages.Token) (jobs.JobID, error) {
	return "1", r.record("execute", tok)
}

func (r *recordingRunner) Collect(ctx context.Context, tok *stages.Token) error {
	return r.record("collect", tok)
}

func recordingTable(calls *[]string, fail map[stages.Kind]map[string]error) map[stages.Kind]stages.Runner {
	table := make(map[stages.Kind]stages.Runner)
	for _, k := range []stages.Kind{stages.KindGaussian, stages.KindDMN, stages.KindDM2Prim, stages.KindIndicator} {
		table[k] = &recordingRunner{kind: k, calls: calls, fail: fail[k]}
	}
	return table
}

func TestOrchestratorRunsLifecycleInOrder(t *testing.T) {
	var calls []string
	o := NewWithRunners(recordingTable(&calls, nil), "/colony", "/scratch", logging.Nop())

	err := o.Run(context.Background(), "abc123", planSpec(t, "hf", "density"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gaussian/prepare/abc123", "gaussian/stage/abc123", "gaussian/execute/abc123", "gaussian/collect/abc123",
		"inca/prepare/abc123", "inca/stage/abc123", "inca/execute/abc123", "inca/collect/abc123",
	}, calls)
}

func TestOrchestratorAbortsOnStageFailure(t *testing.T) {
	var calls []string
	boom := errors.New("no dm2")
	fail := map[stages.Kind]map[string]error{
		stages.KindDMN: {"collect": boom},
	}
	o := NewWithRunners(recordingTable(&calls, fail), "/colony", "/scratch", logging.Nop())

	err := o.Run(context.Background(), "abc123", planSpec(t, "mp2", "density"))

	var fluxErr *Error
	require.ErrorAs(t, err, &fluxErr)
	assert.Equal(t, stages.KindDMN, fluxErr.Stage)
	assert.ErrorIs(t, err, boom)

	for _, c := range calls {
		assert.NotContains(t, c, "dm2prim", "later stages must not run")
	}
}

func TestOrchestratorPairDensityBranchJobNames(t *testing.T) {
	var calls []string
	o := NewWithRunners(recordingTable(&calls, nil), "/colony", "/scratch", logging.Nop())

	err := o.Run(context.Background(), "abc123", planSpec(t, "casscf(2,6)", "nucleus"))
	require.NoError(t, err)

	// 7 stage invocations, 4 lifecycle calls each.
	assert.Len(t, calls, 28)
	assert.Contains(t, calls, "gaussian/execute/abc123_hf")
	assert.Contains(t, calls, "gaussian/execute/abc123_hfl")
	assert.Contains(t, calls, "dm2prim/execute/abc123_hf")
	assert.Contains(t, calls, "dmn/execute/abc123")
	assert.Contains(t, calls, "inca/execute/abc123")
}

func TestOrchestratorHonorsCancelledContext(t *testing.T) {
	var calls []string
	o := NewWithRunners(recordingTable(&calls, nil), "/colony", "/scratch", logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.Run(ctx, "abc123", planSpec(t, "hf"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}
