// Package inputgen renders the input decks and batch scripts the flux
// stages submit: Gaussian .com decks, indicator .inp decks and per-stage
// SLURM scripts.
package inputgen

import (
	"fmt"
	"strings"

	"github.com/qchemtools/corrflux/internal/models"
)

// GaussianDeck renders the .com input for the electronic-structure stage.
// jobName is the artifact prefix (calculation id plus branch suffix).
func GaussianDeck(jobName string, spec models.CalculationSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%%chk=%s.chk\n", jobName)
	b.WriteString("%mem=4GB\n")
	b.WriteString("%NProcShared=1\n")

	route := ""
	if spec.Config == models.GeometryOpt {
		route = "opt "
	}
	extra := extraKeywords(spec)
	if extra != "" {
		extra += " "
	}
	fmt.Fprintf(&b, "#P %s%s/%s gfinput fchk=all %sout=wfx\n\n",
		route, spec.Method.Keywords(), spec.Basis, extra)

	fmt.Fprintf(&b, "%s %s %s %s\n\n", jobName, spec.Molecule, spec.Method, spec.Basis)
	fmt.Fprintf(&b, "%d %d\n", spec.Molecule.Charge, spec.Molecule.Multiplicity)

	if spec.Molecule.IsHarmonium() {
		b.WriteString("H-Bq 0.000000 0.000000 0.000000\n\n")
		b.WriteString(harmoniumPotential(spec.Molecule.Omega))
	} else {
		b.WriteString(strings.TrimRight(spec.Molecule.Geometry, "\n"))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s.wfx\n\n", jobName)
	return b.String()
}

func extraKeywords(spec models.CalculationSpec) string {
	var kw []string
	if spec.Molecule.IsHarmonium() {
		// External potential cards replace the nuclear attraction term.
		kw = append(kw, "charge", "extrabasis")
	}
	return strings.Join(kw, " ")
}

// harmoniumPotential writes the quadratic confinement cards: a zero center
// followed by the -w^2/2 force constants and padding rows.
func harmoniumPotential(omega float64) string {
	var b strings.Builder
	b.WriteString("    0.0000000000D+00    0.0000000000D+00    0.0000000000D+00\n")
	k := -omega * omega / 2
	fmt.Fprintf(&b, "   %.10f   %.10f   %.10f\n", k, k, k)
	for i := 0; i < 9; i++ {
		b.WriteString("    0.0000000000D+00    0.0000000000D+00    0.0000000000D+00\n")
	}
	return b.String()
}
