package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/qchemtools/corrflux/internal/cluster"
	"github.com/qchemtools/corrflux/internal/clustertest"
	"github.com/qchemtools/corrflux/internal/logging"
	"github.com/qchemtools/corrflux/internal/models"
	"github.com/qchemtools/corrflux/internal/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubHandler runs a canned function per spec, registering the calculation
// like the real handler does.
type stubHandler struct {
	reg *registry.Registry
	fn  func(spec models.CalculationSpec) (*models.Outcome, error)

	mu      sync.Mutex
	active  int32
	maxSeen int32
}

func (h *stubHandler) Handle(ctx context.Context, spec models.CalculationSpec) (*models.Outcome, error) {
	n := atomic.AddInt32(&h.active, 1)
	defer atomic.AddInt32(&h.active, -1)
	h.mu.Lock()
	if n > h.maxSeen {
		h.maxSeen = n
	}
	h.mu.Unlock()

	if _, _, _, err := h.reg.FindOrCreate(ctx, spec); err != nil {
		return nil, err
	}
	time.Sleep(5 * time.Millisecond)
	return h.fn(spec)
}

func batchSpec(t *testing.T, molecule string) models.CalculationSpec {
	t.Helper()
	mol, err := models.NewMolecule(molecule, 0, 1)
	require.NoError(t, err)
	spec, err := models.NewSpec(mol, models.HF(), "cc-pvdz", models.SinglePoint, models.Grid{}, nil)
	require.NoError(t, err)
	return spec
}

func newTestScheduler(t *testing.T, workers int, fn func(models.CalculationSpec) (*models.Outcome, error)) (*Scheduler, *stubHandler, *[]*clustertest.FakeSession) {
	t.Helper()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "reg.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	h := &stubHandler{reg: reg, fn: fn}
	var mu sync.Mutex
	sessions := &[]*clustertest.FakeSession{}

	newSession := func(ctx context.Context) (cluster.Session, error) {
		s := clustertest.NewFakeSession()
		mu.Lock()
		*sessions = append(*sessions, s)
		mu.Unlock()
		return s, nil
	}
	newHandler := func(session cluster.Session) TaskHandler { return h }

	return New(reg, newSession, newHandler, workers, 0, logging.Nop()), h, sessions
}

func TestRunBatchKeepsInputOrder(t *testing.T) {
	fail := errors.New("flux failed")
	s, _, _ := newTestScheduler(t, 2, func(spec models.CalculationSpec) (*models.Outcome, error) {
		if spec.Molecule.Name == "be" {
			return nil, fail
		}
		return &models.Outcome{}, nil
	})

	specs := []models.CalculationSpec{
		batchSpec(t, "he"), batchSpec(t, "be"), batchSpec(t, "ne"),
	}
	results := s.RunBatch(context.Background(), specs)

	require.Len(t, results, 3)
	assert.Equal(t, "he", results[0].Spec.Molecule.Name)
	assert.Equal(t, "be", results[1].Spec.Molecule.Name)
	assert.Equal(t, "ne", results[2].Spec.Molecule.Name)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, fail, "one failure stays in its slot")
	assert.NoError(t, results[2].Err, "siblings keep running")
}

func TestRunBatchBoundsConcurrency(t *testing.T) {
	s, h, _ := newTestScheduler(t, 2, func(models.CalculationSpec) (*models.Outcome, error) {
		return &models.Outcome{}, nil
	})

	specs := []models.CalculationSpec{
		batchSpec(t, "he"), batchSpec(t, "be"), batchSpec(t, "ne"),
		batchSpec(t, "ar"), batchSpec(t, "kr"),
	}
	s.RunBatch(context.Background(), specs)
	assert.LessOrEqual(t, h.maxSeen, int32(2))
}

func TestRunBatchOpensAndClosesSessionPerTask(t *testing.T) {
	s, _, sessions := newTestScheduler(t, 4, func(models.CalculationSpec) (*models.Outcome, error) {
		return &models.Outcome{}, nil
	})

	s.RunBatch(context.Background(), []models.CalculationSpec{
		batchSpec(t, "he"), batchSpec(t, "ne"),
	})

	require.Len(t, *sessions, 2)
	for _, sess := range *sessions {
		assert.True(t, sess.Closed())
	}
}

func TestRunBatchTagsMembers(t *testing.T) {
	s, h, _ := newTestScheduler(t, 1, func(models.CalculationSpec) (*models.Outcome, error) {
		return &models.Outcome{}, nil
	})

	spec := batchSpec(t, "he")
	s.RunBatch(context.Background(), []models.CalculationSpec{spec})

	rec, err := h.reg.Get(context.Background(), registry.Identify(spec))
	require.NoError(t, err)
	require.Len(t, rec.Tags, 1)
	assert.Contains(t, rec.Tags[0], "batch:")
}

func TestRunBatchCancelledContext(t *testing.T) {
	s, _, _ := newTestScheduler(t, 2, func(models.CalculationSpec) (*models.Outcome, error) {
		return &models.Outcome{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := s.RunBatch(ctx, []models.CalculationSpec{batchSpec(t, "he"), batchSpec(t, "ne")})
	for _, r := range results {
		assert.Error(t, r.Err)
	}
}
