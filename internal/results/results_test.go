package results

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qchemtools/corrflux/internal/clustertest"
	"github.com/qchemtools/corrflux/internal/logging"
	"github.com/qchemtools/corrflux/internal/models"
)

const goodLog = ` SCF Done:  E(RHF) =  -2.85516042615     A.U. after    5 cycles
 Normal termination of Gaussian 16 at Mon Jan  6 12:00:00 2025.
`

func collectSpec(t *testing.T, props ...string) models.CalculationSpec {
	t.Helper()
	mol, err := models.NewMolecule("he", 0, 1)
	require.NoError(t, err)
	spec, err := models.NewSpec(mol, models.HF(), "cc-pvdz", models.SinglePoint, models.Grid{}, props)
	require.NoError(t, err)
	return spec
}

func TestCollectDownloadsLogAndProperties(t *testing.T) {
	sess := clustertest.NewFakeSession()
	sess.SetContents("/colony/abc123/abc123.log", goodLog)
	sess.SetContents("/colony/abc123/density.cube", "cube data")

	m := NewManager(sess, "/colony", t.TempDir(), logging.Nop())
	outcome, err := m.Collect(context.Background(), "abc123", collectSpec(t, "density"))
	require.NoError(t, err)

	assert.InDelta(t, -2.85516042615, outcome.Energies["scf"], 1e-12)
	require.Contains(t, outcome.Properties, "density")
	data, err := os.ReadFile(outcome.Properties["density"])
	require.NoError(t, err)
	assert.Equal(t, "cube data", string(data))

	// results.json written alongside.
	_, err = os.Stat(filepath.Join(m.Dir("abc123"), "results.json"))
	assert.NoError(t, err)
}

func TestCollectSkipsMissingPropertyArtifacts(t *testing.T) {
	sess := clustertest.NewFakeSession()
	sess.SetContents("/colony/abc123/abc123.log", goodLog)
	// density.cube never produced.

	m := NewManager(sess, "/colony", t.TempDir(), logging.Nop())
	outcome, err := m.Collect(context.Background(), "abc123", collectSpec(t, "density"))
	require.NoError(t, err)
	assert.NotContains(t, outcome.Properties, "density")
}

func TestCollectFailsWithoutNormalTermination(t *testing.T) {
	sess := clustertest.NewFakeSession()
	sess.SetContents("/colony/abc123/abc123.log", " Error termination via Lnk1e\n")

	m := NewManager(sess, "/colony", t.TempDir(), logging.Nop())
	_, err := m.Collect(context.Background(), "abc123", collectSpec(t))
	assert.ErrorContains(t, err, "normal termination")
}

func TestLoadCachedRoundTrip(t *testing.T) {
	sess := clustertest.NewFakeSession()
	sess.SetContents("/colony/abc123/abc123.log", goodLog)

	m := NewManager(sess, "/colony", t.TempDir(), logging.Nop())
	outcome, err := m.Collect(context.Background(), "abc123", collectSpec(t))
	require.NoError(t, err)
	outcome.Elapsed = 12.5
	require.NoError(t, m.WriteSummary(outcome))

	cached, err := m.LoadCached("abc123")
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, 12.5, cached.Elapsed)
	assert.Equal(t, outcome.Energies, cached.Energies)
}

func TestLoadCachedMissing(t *testing.T) {
	m := NewManager(clustertest.NewFakeSession(), "/colony", t.TempDir(), logging.Nop())
	_, err := m.LoadCached("nope")
	assert.Error(t, err)
}
