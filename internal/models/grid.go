package models

import (
	"fmt"
	"strings"
)

// Axis is one dimension of an evaluation grid.
type Axis struct {
	Origin float64
	Max    float64
	Step   float64
}

// Grid is the property evaluation grid handed to the indicator program.
type Grid struct {
	X Axis
	Y Axis
	Z Axis
}

const (
	defaultGridMax  = 2.0
	defaultGridStep = 0.05
)

// DefaultGrid returns the symmetric default grid.
func DefaultGrid() Grid {
	a := Axis{Origin: -defaultGridMax, Max: defaultGridMax, Step: defaultGridStep}
	return Grid{X: a, Y: a, Z: a}
}

// GridForMolecule collapses redundant dimensions: atoms only vary along z,
// linear molecules along x and z, planar molecules keep a half x axis.
func GridForMolecule(m Molecule) Grid {
	g := DefaultGrid()
	switch classifyGeometry(m) {
	case "atom":
		g.X = Axis{}
		g.Y = Axis{}
		g.Z.Origin = 0
	case "linear":
		g.X.Origin = 0
		g.Y = Axis{}
	case "planar":
		g.X.Origin = 0
	}
	return g
}

func classifyGeometry(m Molecule) string {
	if m.IsSingleAtom() {
		return "atom"
	}
	// Geometry shape detection beyond the atom case needs coordinates;
	// decks without them are treated as general 3D systems.
	lines := 0
	for _, ln := range strings.Split(m.Geometry, "\n") {
		if strings.TrimSpace(ln) != "" {
			lines++
		}
	}
	if lines == 2 {
		return "linear"
	}
	return "general"
}

// Block renders the $Grid section of an indicator input deck.
func (g Grid) Block() string {
	var b strings.Builder
	b.WriteString("$Grid\n")
	for _, a := range []Axis{g.X, g.Y, g.Z} {
		fmt.Fprintf(&b, "%g %g %g\n", a.Origin, a.Max, a.Step)
	}
	return b.String()
}

// Signature is a stable textual form used for calculation identity.
func (g Grid) Signature() string {
	return strings.TrimPrefix(g.Block(), "$Grid\n")
}
