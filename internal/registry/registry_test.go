package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qchemtools/corrflux/internal/logging"
	"github.com/qchemtools/corrflux/internal/models"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "reg.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func testSpec(t *testing.T, method string, props ...string) models.CalculationSpec {
	t.Helper()
	mol, err := models.NewMolecule("he", 0, 1)
	require.NoError(t, err)
	m, err := models.NewMethod(method, 0)
	require.NoError(t, err)
	spec, err := models.NewSpec(mol, m, "cc-pvdz", models.SinglePoint, models.Grid{}, props)
	require.NoError(t, err)
	return spec
}

func TestIdentifyDeterministic(t *testing.T) {
	a := Identify(testSpec(t, "hf", "density", "on_top"))
	b := Identify(testSpec(t, "hf", "on top", "Density"))
	assert.Equal(t, a, b, "identity must ignore property order and aliases")
	assert.Len(t, string(a), 16)

	c := Identify(testSpec(t, "mp2", "density"))
	assert.NotEqual(t, a, c, "method must change identity")
}

func TestIdentifyIgnoresProperties(t *testing.T) {
	a := Identify(testSpec(t, "hf", "density"))
	b := Identify(testSpec(t, "hf"))
	assert.Equal(t, a, b, "properties extend a calculation, they do not fork it")
}

func TestFindOrCreateNew(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	id, isNew, rec, err := r.FindOrCreate(ctx, testSpec(t, "hf", "density"))
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, models.StatusPending, rec.Status)
	assert.Equal(t, []string{"density"}, rec.MissingProperties())
	assert.Equal(t, id, rec.ID)
}

func TestFindOrCreateIdempotent(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()
	spec := testSpec(t, "hf", "density")

	id1, isNew, _, err := r.FindOrCreate(ctx, spec)
	require.NoError(t, err)
	require.True(t, isNew)

	id2, isNew, _, err := r.FindOrCreate(ctx, spec)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, id1, id2)
}

func TestCompletedCalculationIsCached(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()
	spec := testSpec(t, "hf", "density")

	id, _, _, err := r.FindOrCreate(ctx, spec)
	require.NoError(t, err)
	require.NoError(t, r.MarkRunning(ctx, id))
	require.NoError(t, r.MarkCompleted(ctx, id, map[string]string{"density": "results/x/density.cube"}))

	_, isNew, rec, err := r.FindOrCreate(ctx, spec)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, models.StatusCompleted, rec.Status)
	assert.Empty(t, rec.MissingProperties())
	assert.NotNil(t, rec.EndedAt)
}

func TestFindOrCreateReopensForMissingProperties(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	id, _, _, err := r.FindOrCreate(ctx, testSpec(t, "hf", "density"))
	require.NoError(t, err)
	require.NoError(t, r.MarkRunning(ctx, id))
	require.NoError(t, r.MarkCompleted(ctx, id, map[string]string{"density": "d.cube"}))

	// Same physical problem, one extra property.
	_, isNew, rec, err := r.FindOrCreate(ctx, testSpec(t, "hf", "density", "on_top"))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, models.StatusRunning, rec.Status)
	assert.Equal(t, []string{"on_top"}, rec.MissingProperties())
}

func TestMarkFailedKeepsMessage(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	id, _, _, err := r.FindOrCreate(ctx, testSpec(t, "mp2"))
	require.NoError(t, err)
	require.NoError(t, r.MarkFailed(ctx, id, "stage dmn: job vanished"))

	rec, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, rec.Status)
	assert.Equal(t, "stage dmn: job vanished", rec.ErrorMessage)
}

func TestMarkRunningUnknownID(t *testing.T) {
	r := openTestRegistry(t)
	err := r.MarkRunning(context.Background(), "deadbeefdeadbeef")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTags(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	id, _, _, err := r.FindOrCreate(ctx, testSpec(t, "hf"))
	require.NoError(t, err)
	require.NoError(t, r.AddTag(ctx, id, "batch:1234"))
	require.NoError(t, r.AddTag(ctx, id, "batch:1234")) // duplicate is a no-op

	rec, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"batch:1234"}, rec.Tags)
}

func TestNestedTransactionRollback(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	id, _, _, err := r.FindOrCreate(ctx, testSpec(t, "hf"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = r.WithTx(ctx, func(tx *Tx) error {
		if err := tx.AddTag(ctx, id, "outer"); err != nil {
			return err
		}
		// Inner failure must not take the outer work with it.
		nestedErr := tx.WithNested(ctx, func(inner *Tx) error {
			if err := inner.AddTag(ctx, id, "inner"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, nestedErr, boom)
		return nil
	})
	require.NoError(t, err)

	rec, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, rec.Tags, "outer")
	assert.NotContains(t, rec.Tags, "inner")
}

func TestRootTransactionRollback(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	id, _, _, err := r.FindOrCreate(ctx, testSpec(t, "hf"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = r.WithTx(ctx, func(tx *Tx) error {
		if err := tx.AddTag(ctx, id, "doomed"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rec.Tags)
}
