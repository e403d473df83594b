package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qchemtools/corrflux/internal/models"
)

func newRunCmd() *cobra.Command {
	entry := specEntry{}
	var gridX, gridY, gridZ []float64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single calculation",
		Long: `Runs one calculation through the full flux. If the registry already
holds a completed calculation with the same physical parameters, the cached
result is returned without touching the cluster.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(gridX)+len(gridY)+len(gridZ) > 0 {
				entry.Grid = &gridSpec{X: gridX, Y: gridY, Z: gridZ}
			}
			spec, err := entry.toSpec()
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := openRegistry(cfg)
			if err != nil {
				return err
			}
			defer reg.Close()

			session, err := sessionFactory(cfg)(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			outcome, err := handlerFactory(cfg, reg)(session).Handle(cmd.Context(), spec)
			if err != nil {
				return err
			}

			printOutcome(cmd, outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&entry.Molecule, "molecule", "", "molecule name (or 'harmonium')")
	cmd.Flags().IntVar(&entry.Charge, "charge", 0, "molecular charge")
	cmd.Flags().IntVar(&entry.Multiplicity, "multiplicity", 1, "spin multiplicity")
	cmd.Flags().Float64Var(&entry.Omega, "omega", 0, "harmonium confinement strength")
	cmd.Flags().StringVar(&entry.Geometry, "geometry", "", "XYZ geometry body")
	cmd.Flags().StringVar(&entry.Method, "method", "hf", "method (hf, mp2, ccsd, casscf(n,m), fullci)")
	cmd.Flags().IntVar(&entry.ExcitedState, "excited-state", 0, "CASSCF excited state index")
	cmd.Flags().StringVar(&entry.Basis, "basis", "", "basis set")
	cmd.Flags().StringVar(&entry.Config, "type", "sp", "run configuration (sp or opt)")
	cmd.Flags().StringSliceVar(&entry.Properties, "properties", nil, "properties to evaluate")
	cmd.Flags().Float64SliceVar(&gridX, "grid-x", nil, "grid x axis: max | max,step | origin,max,step")
	cmd.Flags().Float64SliceVar(&gridY, "grid-y", nil, "grid y axis")
	cmd.Flags().Float64SliceVar(&gridZ, "grid-z", nil, "grid z axis")

	cmd.MarkFlagRequired("molecule")
	cmd.MarkFlagRequired("basis")

	return cmd
}

func printOutcome(cmd *cobra.Command, outcome *models.Outcome) {
	out := cmd.OutOrStdout()
	status := "computed"
	if outcome.Cached {
		status = "cached"
	}
	fmt.Fprintf(out, "calculation %s (%s)\n", outcome.Calculation, status)
	for name, value := range outcome.Energies {
		fmt.Fprintf(out, "  energy %-8s %.10f\n", name, value)
	}
	for name, path := range outcome.Properties {
		fmt.Fprintf(out, "  property %-24s %s\n", name, path)
	}
	if !outcome.Cached {
		fmt.Fprintf(out, "  elapsed %.0fs\n", outcome.Elapsed)
	}
}
