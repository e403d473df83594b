package models

import (
	"fmt"
	"strings"
)

// Molecule identifies the chemical system of a calculation. Names are
// normalized to lower case so that "He" and "he" address the same registry
// entry. Harmonium is the only synthetic system: it carries a confinement
// strength omega and fixed charge/multiplicity.
type Molecule struct {
	Name         string
	Charge       int
	Multiplicity int
	Omega        float64 // confinement strength, harmonium only
	// Geometry holds the XYZ body used in input decks. It does not
	// participate in calculation identity.
	Geometry string
}

const harmoniumName = "harmonium"

// NewMolecule builds a normalized molecule.
func NewMolecule(name string, charge, multiplicity int) (Molecule, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Molecule{}, fmt.Errorf("molecule name is empty")
	}
	if multiplicity < 1 {
		return Molecule{}, fmt.Errorf("molecule %s: multiplicity %d out of range", name, multiplicity)
	}
	return Molecule{Name: name, Charge: charge, Multiplicity: multiplicity}, nil
}

// NewHarmonium builds the two-electron harmonium system for a given
// confinement strength.
func NewHarmonium(omega float64) (Molecule, error) {
	if omega <= 0 {
		return Molecule{}, fmt.Errorf("harmonium: omega must be positive, got %g", omega)
	}
	return Molecule{
		Name:         harmoniumName,
		Charge:       -2,
		Multiplicity: 1,
		Omega:        omega,
	}, nil
}

// IsHarmonium reports whether the molecule is the synthetic harmonium system.
func (m Molecule) IsHarmonium() bool {
	return m.Name == harmoniumName
}

// IsSingleAtom reports whether the geometry contains at most one atomic
// center. Single atoms have no degrees of freedom to optimize, so geometry
// optimization is forced down to a single point for them.
func (m Molecule) IsSingleAtom() bool {
	if m.IsHarmonium() {
		return true
	}
	lines := 0
	for _, ln := range strings.Split(m.Geometry, "\n") {
		if strings.TrimSpace(ln) != "" {
			lines++
		}
	}
	return lines <= 1
}

func (m Molecule) String() string {
	if m.IsHarmonium() {
		return fmt.Sprintf("%s(w=%g)", m.Name, m.Omega)
	}
	return m.Name
}
