package inputgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qchemtools/corrflux/internal/models"
)

func heliumSpec(t *testing.T, method string, props ...string) models.CalculationSpec {
	t.Helper()
	mol, err := models.NewMolecule("he", 0, 1)
	require.NoError(t, err)
	m, err := models.NewMethod(method, 0)
	require.NoError(t, err)
	spec, err := models.NewSpec(mol, m, "cc-pvdz", models.SinglePoint, models.Grid{}, props)
	require.NoError(t, err)
	return spec
}

func TestGaussianDeckRoute(t *testing.T) {
	deck := GaussianDeck("abc123", heliumSpec(t, "casscf(2,6)"))

	assert.Contains(t, deck, "%chk=abc123.chk\n")
	assert.Contains(t, deck, "#P casscf(2,6)/cc-pvdz gfinput fchk=all")
	assert.Contains(t, deck, "out=wfx")
	assert.Contains(t, deck, "\n0 1\n")
	assert.True(t, strings.HasSuffix(deck, "abc123.wfx\n\n"))
}

func TestGaussianDeckHarmonium(t *testing.T) {
	mol, err := models.NewHarmonium(0.5)
	require.NoError(t, err)
	m, err := models.NewMethod("hf", 0)
	require.NoError(t, err)
	spec, err := models.NewSpec(mol, m, "sto-3g", models.SinglePoint, models.Grid{}, nil)
	require.NoError(t, err)

	deck := GaussianDeck("h05", spec)
	assert.Contains(t, deck, "H-Bq 0.000000 0.000000 0.000000")
	assert.Contains(t, deck, "-2 1\n")
	assert.Contains(t, deck, "-0.1250000000")
}

func TestIndicatorDeckPlaceholders(t *testing.T) {
	deck := IndicatorDeck("abc123", heliumSpec(t, "hf", "density"))

	assert.Contains(t, deck, "$wfxfile\nabc123.wfx\n")
	assert.Contains(t, deck, "$Properties\n1\ndensity total\n")
	assert.Contains(t, deck, "$DM2files\nno no no\n")
}

func TestIndicatorDeckPairDensityReferences(t *testing.T) {
	deck := IndicatorDeck("abc123", heliumSpec(t, "casscf(2,6)", "nucleus"))

	assert.Contains(t, deck, "$DM2files\nabc123.dm2p abc123_hf.dm2p abc123_hfl.dm2p\n")
	assert.Contains(t, deck, "pair_density_nucleus all\n")
}

func TestIndicatorDeckEmptyProperties(t *testing.T) {
	deck := IndicatorDeck("abc123", heliumSpec(t, "hf"))
	assert.Contains(t, deck, "$Properties\nNone\n")
}

func TestScripts(t *testing.T) {
	p := ScriptParams{
		JobName:    "abc123_hf",
		BaseName:   "abc123",
		ScratchDir: "/scratch/abc123",
		ColonyDir:  "/colony/abc123",
	}

	g := GaussianScript(p)
	assert.Contains(t, g, "#SBATCH --job-name=abc123_hf_gaussian\n")
	assert.Contains(t, g, "#SBATCH --chdir=/scratch/abc123\n")
	assert.Contains(t, g, "g16 < /scratch/abc123/abc123_hf.com > /scratch/abc123/abc123_hf.log\n")

	d := DMNScript(p)
	assert.Contains(t, d, "DMN /scratch/abc123/abc123_hf.log\n")
	assert.NotContains(t, d, "DM2PRIM.x")

	p.ConvertBase = true
	d = DMNScript(p)
	assert.Contains(t, d, "DM2PRIM.x abc123_hf 10 10 no no no yes\n")

	i := IndicatorScript(p)
	assert.Contains(t, i, "roda.x abc123_hf.inp\n")
}

func TestDMNDirectivesCarryMarker(t *testing.T) {
	assert.Contains(t, DMNDirectives, DMNDirectivesMarker)
	assert.Contains(t, DMNDirectives, "DM2HF")
	assert.Contains(t, DMNDirectives, "DM2SD")
}
