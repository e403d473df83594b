package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpecNormalizes(t *testing.T) {
	mol, err := NewMolecule("He", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "he", mol.Name)

	m, err := NewMethod("HF", 0)
	require.NoError(t, err)

	spec, err := NewSpec(mol, m, "CC-pVDZ", "", DefaultGrid(), []string{"Density", "on top", "density"})
	require.NoError(t, err)
	assert.Equal(t, "cc-pvdz", spec.Basis)
	assert.Equal(t, SinglePoint, spec.Config)
	assert.Equal(t, []string{"density", "on_top"}, spec.Properties)
}

func TestNewSpecForcesSinglePointForAtoms(t *testing.T) {
	mol, err := NewMolecule("ne", 0, 1)
	require.NoError(t, err)

	m, err := NewMethod("mp2", 0)
	require.NoError(t, err)

	spec, err := NewSpec(mol, m, "sto-3g", GeometryOpt, DefaultGrid(), nil)
	require.NoError(t, err)
	assert.Equal(t, SinglePoint, spec.Config)
}

func TestNewSpecRejectsUnknownProperty(t *testing.T) {
	mol, err := NewMolecule("he", 0, 1)
	require.NoError(t, err)

	_, err = NewSpec(mol, HF(), "sto-3g", SinglePoint, DefaultGrid(), []string{"bogus"})
	assert.Error(t, err)
}

func TestWithMethodDoesNotMutateReceiver(t *testing.T) {
	mol, err := NewMolecule("he", 0, 1)
	require.NoError(t, err)

	cas, err := NewMethod("casscf(2,6)", 0)
	require.NoError(t, err)

	spec, err := NewSpec(mol, cas, "cc-pvdz", SinglePoint, DefaultGrid(), []string{"nucleus"})
	require.NoError(t, err)

	ref := spec.HFReference()
	assert.True(t, ref.Method.IsHF())
	assert.True(t, spec.Method.IsCASSCF(), "original spec must keep its method")
	assert.Equal(t, spec.Properties, ref.Properties)
}

func TestNeedsPairDensityReference(t *testing.T) {
	mol, err := NewMolecule("he", 0, 1)
	require.NoError(t, err)

	plain, err := NewSpec(mol, HF(), "sto-3g", SinglePoint, DefaultGrid(), []string{"density"})
	require.NoError(t, err)
	assert.False(t, plain.NeedsPairDensityReference())

	nuc, err := NewSpec(mol, HF(), "sto-3g", SinglePoint, DefaultGrid(), []string{"nucleus_c1"})
	require.NoError(t, err)
	assert.True(t, nuc.NeedsPairDensityReference())
}

func TestHarmonium(t *testing.T) {
	h, err := NewHarmonium(0.5)
	require.NoError(t, err)
	assert.Equal(t, -2, h.Charge)
	assert.Equal(t, 1, h.Multiplicity)
	assert.True(t, h.IsHarmonium())
	assert.True(t, h.IsSingleAtom())

	_, err = NewHarmonium(0)
	assert.Error(t, err)
}
