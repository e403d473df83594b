package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/qchemtools/corrflux/internal/models"
)

// identity is the canonical, order-stable projection of a spec. Field order
// is fixed by the struct; properties are sorted at spec construction.
// Geometry is excluded: two specs naming the same system are the same
// calculation regardless of how the coordinates were written.
type identity struct {
	Molecule     string   `json:"molecule"`
	Charge       int      `json:"charge"`
	Multiplicity int      `json:"multiplicity"`
	Omega        float64  `json:"omega"`
	Method       string   `json:"method"`
	ActiveE      int      `json:"active_electrons"`
	ActiveO      int      `json:"active_orbitals"`
	ExcitedState int      `json:"excited_state"`
	Basis        string   `json:"basis"`
	Config       string   `json:"config"`
	Grid         string   `json:"grid"`
}

// Identify derives the content address of a spec. Identity covers the
// physical problem, not the requested properties: asking for more properties
// extends an existing calculation instead of creating a sibling.
func Identify(spec models.CalculationSpec) models.CalculationID {
	id := identity{
		Molecule:     spec.Molecule.Name,
		Charge:       spec.Molecule.Charge,
		Multiplicity: spec.Molecule.Multiplicity,
		Omega:        spec.Molecule.Omega,
		Method:       spec.Method.Name,
		ActiveE:      spec.Method.ActiveElectrons,
		ActiveO:      spec.Method.ActiveOrbitals,
		ExcitedState: spec.Method.ExcitedState,
		Basis:        spec.Basis,
		Config:       string(spec.Config),
		Grid:         spec.Grid.Signature(),
	}
	// Struct marshalling is deterministic for fixed field order.
	data, _ := json.Marshal(id)
	sum := sha256.Sum256(data)
	return models.CalculationID(hex.EncodeToString(sum[:])[:16])
}
