// Package flux plans and drives the staged execution of one calculation.
package flux

import (
	"github.com/qchemtools/corrflux/internal/models"
	"github.com/qchemtools/corrflux/internal/stages"
)

// Step is one stage invocation of a flux plan.
type Step struct {
	Kind   stages.Kind
	Suffix string
	Spec   models.CalculationSpec
}

// BuildPlan derives the stage sequence for a spec.
//
// Hartree-Fock runs need no density-matrix work: electronic structure, then
// the indicator. Correlated runs insert the extraction and conversion
// stages. When a nucleus pair-density property is requested the plan adds
// the two HF-reference branches: their electronic-structure runs provide the
// checkpoints, a single extraction emits all three matrices (converting the
// base one in the same job), and the two reference matrices get their own
// conversions before the final indicator run, seven stage calls in total.
func BuildPlan(spec models.CalculationSpec) []Step {
	if spec.Method.IsHF() {
		return []Step{
			{Kind: stages.KindGaussian, Spec: spec},
			{Kind: stages.KindIndicator, Spec: spec},
		}
	}

	if !spec.NeedsPairDensityReference() {
		return []Step{
			{Kind: stages.KindGaussian, Spec: spec},
			{Kind: stages.KindDMN, Spec: spec},
			{Kind: stages.KindDM2Prim, Spec: spec},
			{Kind: stages.KindIndicator, Spec: spec},
		}
	}

	hf := spec.HFReference()
	return []Step{
		{Kind: stages.KindGaussian, Spec: spec},
		{Kind: stages.KindGaussian, Suffix: "hf", Spec: hf},
		{Kind: stages.KindGaussian, Suffix: "hfl", Spec: hf},
		{Kind: stages.KindDMN, Spec: spec},
		{Kind: stages.KindDM2Prim, Suffix: "hf", Spec: hf},
		{Kind: stages.KindDM2Prim, Suffix: "hfl", Spec: hf},
		{Kind: stages.KindIndicator, Spec: spec},
	}
}
