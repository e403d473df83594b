package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qchemtools/corrflux/internal/models"
)

func newStatusCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registry state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := openRegistry(cfg)
			if err != nil {
				return err
			}
			defer reg.Close()

			out := cmd.OutOrStdout()

			if id != "" {
				rec, err := reg.Get(cmd.Context(), models.CalculationID(id))
				if err != nil {
					return err
				}
				printRecord(out, rec)
				return nil
			}

			recs, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, rec := range recs {
				missing := len(rec.MissingProperties())
				fmt.Fprintf(out, "%-18s %-10s %-12s %-16s %-10s %d/%d properties\n",
					rec.ID, rec.Status, rec.Molecule, rec.Method, rec.Basis,
					len(rec.Properties)-missing, len(rec.Properties))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "show one calculation in detail")
	return cmd
}

func printRecord(out io.Writer, rec *models.CalculationRecord) {
	fmt.Fprintf(out, "calculation %s\n", rec.ID)
	fmt.Fprintf(out, "  system   %s (charge %d, multiplicity %d)\n", rec.Molecule, rec.Charge, rec.Multiplicity)
	fmt.Fprintf(out, "  method   %s/%s [%s]\n", rec.Method, rec.Basis, rec.Config)
	fmt.Fprintf(out, "  status   %s\n", rec.Status)
	if rec.ErrorMessage != "" {
		fmt.Fprintf(out, "  error    %s\n", rec.ErrorMessage)
	}
	fmt.Fprintf(out, "  created  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	if rec.StartedAt != nil {
		fmt.Fprintf(out, "  started  %s\n", rec.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if rec.EndedAt != nil {
		fmt.Fprintf(out, "  ended    %s\n", rec.EndedAt.Format("2006-01-02 15:04:05"))
	}
	for _, p := range rec.Properties {
		state := "pending"
		if p.Completed {
			state = "done"
		}
		fmt.Fprintf(out, "  property %-24s %-8s %s\n", p.Name, state, p.Payload)
	}
	if len(rec.Tags) > 0 {
		fmt.Fprintf(out, "  tags     %s\n", strings.Join(rec.Tags, ", "))
	}
}
