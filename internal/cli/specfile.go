package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qchemtools/corrflux/internal/models"
)

// specEntry is one calculation in a batch file or built from run flags.
type specEntry struct {
	Molecule     string    `yaml:"molecule"`
	Charge       int       `yaml:"charge"`
	Multiplicity int       `yaml:"multiplicity"`
	Omega        float64   `yaml:"omega,omitempty"`
	Geometry     string    `yaml:"geometry,omitempty"`
	Method       string    `yaml:"method"`
	ExcitedState int       `yaml:"excited_state,omitempty"`
	Basis        string    `yaml:"basis"`
	Config       string    `yaml:"config,omitempty"`
	Properties   []string  `yaml:"properties,omitempty"`
	Grid         *gridSpec `yaml:"grid,omitempty"`
}

type gridSpec struct {
	X []float64 `yaml:"x,omitempty"`
	Y []float64 `yaml:"y,omitempty"`
	Z []float64 `yaml:"z,omitempty"`
}

type batchFile struct {
	Calculations []specEntry `yaml:"calculations"`
}

// toSpec validates and normalizes one entry.
func (e specEntry) toSpec() (models.CalculationSpec, error) {
	var (
		mol models.Molecule
		err error
	)
	if e.Molecule == "harmonium" {
		mol, err = models.NewHarmonium(e.Omega)
	} else {
		mult := e.Multiplicity
		if mult == 0 {
			mult = 1
		}
		mol, err = models.NewMolecule(e.Molecule, e.Charge, mult)
	}
	if err != nil {
		return models.CalculationSpec{}, err
	}
	mol.Geometry = e.Geometry

	method, err := models.NewMethod(e.Method, e.ExcitedState)
	if err != nil {
		return models.CalculationSpec{}, err
	}

	grid := models.Grid{}
	if e.Grid != nil {
		grid = models.GridForMolecule(mol)
		for _, d := range []struct {
			axis   *models.Axis
			values []float64
		}{
			{&grid.X, e.Grid.X}, {&grid.Y, e.Grid.Y}, {&grid.Z, e.Grid.Z},
		} {
			if err := applyAxis(d.axis, d.values); err != nil {
				return models.CalculationSpec{}, err
			}
		}
	}

	return models.NewSpec(mol, method, e.Basis, models.ConfigKind(e.Config), grid, e.Properties)
}

// applyAxis follows the short forms of the grid notation: [max],
// [max, step] or [origin, max, step].
func applyAxis(a *models.Axis, values []float64) error {
	switch len(values) {
	case 0:
		return nil
	case 1:
		a.Max = values[0]
		if a.Origin != 0 {
			a.Origin = -a.Max
		}
	case 2:
		a.Max = values[0]
		if a.Origin != 0 {
			a.Origin = -a.Max
		}
		a.Step = values[1]
	case 3:
		a.Origin = values[0]
		a.Max = values[1]
		a.Step = values[2]
	default:
		return fmt.Errorf("grid axis takes 1-3 values, got %d", len(values))
	}
	return nil
}

// loadBatchFile reads a batch YAML file into validated specs.
func loadBatchFile(path string) ([]models.CalculationSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file %s: %w", path, err)
	}
	var bf batchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	if len(bf.Calculations) == 0 {
		return nil, fmt.Errorf("batch file %s lists no calculations", path)
	}

	specs := make([]models.CalculationSpec, 0, len(bf.Calculations))
	for i, e := range bf.Calculations {
		spec, err := e.toSpec()
		if err != nil {
			return nil, fmt.Errorf("batch entry %d: %w", i+1, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
