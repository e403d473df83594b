package inputgen

import (
	"fmt"
	"strings"
)

// ScriptParams carries the remote layout a stage script runs against.
type ScriptParams struct {
	JobName    string // artifact prefix of this branch
	BaseName   string // artifact prefix of the base calculation
	ScratchDir string // per-calculation scratch directory
	ColonyDir  string // per-calculation colony directory
	// ConvertBase additionally converts the base density matrix to the
	// primitive basis inside the density-matrix job.
	ConvertBase bool
}

func header(name string, p ScriptParams, mem string) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("#SBATCH --qos=regular\n")
	fmt.Fprintf(&b, "#SBATCH --job-name=%s\n", name)
	b.WriteString("#SBATCH --cpus-per-task=1\n")
	fmt.Fprintf(&b, "#SBATCH --mem=%s\n", mem)
	b.WriteString("#SBATCH --nodes=1\n")
	fmt.Fprintf(&b, "#SBATCH --output=%s/%s.out\n", p.ScratchDir, name)
	fmt.Fprintf(&b, "#SBATCH --error=%s/%s.err\n", p.ScratchDir, name)
	fmt.Fprintf(&b, "#SBATCH --chdir=%s\n\n", p.ScratchDir)
	fmt.Fprintf(&b, "cd %s\n", p.ScratchDir)
	b.WriteString("source ~/.bashrc\n")
	return b.String()
}

// GaussianScript runs the electronic-structure program on the uploaded deck.
func GaussianScript(p ScriptParams) string {
	var b strings.Builder
	b.WriteString(header(p.JobName+"_gaussian", p, "6gb"))
	b.WriteString("module load Gaussian/16\n")
	fmt.Fprintf(&b, "g16 < %s/%s.com > %s/%s.log\n", p.ScratchDir, p.JobName, p.ScratchDir, p.JobName)
	fmt.Fprintf(&b, "cd %s\n", p.ColonyDir)
	return b.String()
}

// DMNScript extracts density matrices from the patched log. With ConvertBase
// it also runs the primitive-basis conversion for the base matrix, so the
// reference branches are the only ones that need a separate conversion job.
func DMNScript(p ScriptParams) string {
	var b strings.Builder
	b.WriteString(header(p.JobName+"_dmn", p, "5gb"))
	b.WriteString("module load intel/2020a\n")
	fmt.Fprintf(&b, "%s/../SOFT/DMN/DMN %s/%s.log\n", p.ScratchDir, p.ScratchDir, p.JobName)
	if p.ConvertBase {
		fmt.Fprintf(&b, "%s/../SOFT/DM2PRIM/DM2PRIM.x %s 10 10 no no no yes\n", p.ScratchDir, p.JobName)
	}
	fmt.Fprintf(&b, "cd %s\n", p.ColonyDir)
	return b.String()
}

// DM2PrimScript converts a density matrix to the primitive basis.
func DM2PrimScript(p ScriptParams) string {
	var b strings.Builder
	b.WriteString(header(p.JobName+"_dm2prim", p, "200gb"))
	b.WriteString("module load intel\n")
	fmt.Fprintf(&b, "%s/../SOFT/DM2PRIM/DM2PRIM.x %s 10 10 no no no yes\n", p.ScratchDir, p.JobName)
	fmt.Fprintf(&b, "cd %s\n", p.ColonyDir)
	return b.String()
}

// IndicatorScript runs the indicator program on the assembled inputs.
func IndicatorScript(p ScriptParams) string {
	var b strings.Builder
	b.WriteString(header(p.JobName+"_inca", p, "5gb"))
	b.WriteString("module load intel\n")
	fmt.Fprintf(&b, "%s/../SOFT/INCA_mod/roda.x %s.inp\n", p.ScratchDir, p.JobName)
	fmt.Fprintf(&b, "cd %s\n", p.ColonyDir)
	return b.String()
}
