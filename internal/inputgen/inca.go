package inputgen

import (
	"fmt"
	"strings"

	"github.com/qchemtools/corrflux/internal/models"
)

// IndicatorDeck renders the .inp input for the indicator stage. The DM2
// columns carry "no" placeholders when the HF-reference branches were not
// run.
func IndicatorDeck(jobName string, spec models.CalculationSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", jobName)
	b.WriteString("$wfxfile\n")
	fmt.Fprintf(&b, "%s.wfx\n", jobName)
	b.WriteString("$logfile\n")
	b.WriteString("no\n")
	b.WriteString(spec.Grid.Block())
	b.WriteString("$Grid_2\n")
	b.WriteString(".false.\n")
	b.WriteString(propertiesBlock(spec.Properties))
	b.WriteString("$DM2files\n")

	dm2p, dm2pHF, dm2pHFL := "no", "no", "no"
	if !spec.Method.IsHF() {
		dm2p = jobName + ".dm2p"
	}
	if spec.NeedsPairDensityReference() {
		dm2pHF = jobName + "_hf.dm2p"
		dm2pHFL = jobName + "_hfl.dm2p"
	}
	fmt.Fprintf(&b, "%s %s %s\n", dm2p, dm2pHF, dm2pHFL)

	return b.String()
}

func propertiesBlock(props []string) string {
	if len(props) == 0 {
		return "$Properties\nNone\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "$Properties\n%d\n", len(props))
	for _, p := range props {
		opt := models.PropertyOption(p)
		if opt == "" {
			fmt.Fprintf(&b, "%s\n", p)
		} else {
			fmt.Fprintf(&b, "%s %s\n", p, opt)
		}
	}
	return b.String()
}

// DMNDirectives is the block appended to the electronic-structure log before
// the density-matrix stage. The DM2HF/DM2SD selectors make one run emit the
// correlated matrix together with both reference matrices.
const DMNDirectives = ` Thresholds for DMn (READ, WRITE)
 1d-10 1d-10
 DMs to compute
 2 1 2
 DM2HF
 DM2SD
`

// DMNDirectivesMarker identifies an already-patched log.
const DMNDirectivesMarker = "Thresholds for DMn (READ, WRITE)"
