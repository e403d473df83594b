package models

import (
	"fmt"
	"strings"
)

// ConfigKind selects the run configuration of the electronic-structure step.
type ConfigKind string

const (
	SinglePoint ConfigKind = "sp"
	GeometryOpt ConfigKind = "opt"
)

// CalculationSpec fully determines one calculation. Specs are value types:
// derivation helpers return modified copies and never touch the receiver, so
// a spec can be shared across goroutines safely.
type CalculationSpec struct {
	Molecule   Molecule
	Method     Method
	Basis      string
	Config     ConfigKind
	Grid       Grid
	Properties []string // canonical, sorted
}

// NewSpec normalizes and validates a calculation spec. The basis is
// lowercased, properties are canonicalized and sorted, and configurations
// that make no sense for the system are corrected: single atoms and excited
// states always run single point.
func NewSpec(mol Molecule, method Method, basis string, config ConfigKind, grid Grid, properties []string) (CalculationSpec, error) {
	basis = strings.ToLower(strings.TrimSpace(basis))
	if basis == "" {
		return CalculationSpec{}, fmt.Errorf("basis set is empty")
	}
	if config == "" {
		config = SinglePoint
	}
	if config != SinglePoint && config != GeometryOpt {
		return CalculationSpec{}, fmt.Errorf("unknown configuration %q", config)
	}
	if config == GeometryOpt && (mol.IsSingleAtom() || method.ExcitedState > 0) {
		config = SinglePoint
	}
	props, err := CanonicalProperties(properties)
	if err != nil {
		return CalculationSpec{}, err
	}
	if (grid == Grid{}) {
		grid = GridForMolecule(mol)
	}
	return CalculationSpec{
		Molecule:   mol,
		Method:     method,
		Basis:      basis,
		Config:     config,
		Grid:       grid,
		Properties: props,
	}, nil
}

// WithMethod returns a copy of the spec with the method replaced.
func (s CalculationSpec) WithMethod(m Method) CalculationSpec {
	s.Properties = append([]string(nil), s.Properties...)
	s.Method = m
	return s
}

// WithProperties returns a copy of the spec carrying only the given
// canonical properties.
func (s CalculationSpec) WithProperties(props []string) CalculationSpec {
	s.Properties = append([]string(nil), props...)
	return s
}

// HFReference derives the Hartree-Fock reference spec used for the
// nucleus-pair-density branches.
func (s CalculationSpec) HFReference() CalculationSpec {
	return s.WithMethod(HF())
}

// NeedsPairDensityReference reports whether any requested property requires
// the additional HF-reference density-matrix branches.
func (s CalculationSpec) NeedsPairDensityReference() bool {
	for _, p := range s.Properties {
		if IsNucleusPairDensity(p) {
			return true
		}
	}
	return false
}

func (s CalculationSpec) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", s.Molecule, s.Method, s.Basis, s.Config)
}
