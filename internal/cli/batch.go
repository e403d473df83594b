package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qchemtools/corrflux/internal/scheduler"
)

func newBatchCmd() *cobra.Command {
	var (
		file    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a batch of calculations from a YAML file",
		Long: `Runs every calculation listed in the batch file over a bounded worker
pool, one cluster connection per task. Results are reported in file order;
a failed calculation never aborts the rest of the batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := loadBatchFile(file)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			reg, err := openRegistry(cfg)
			if err != nil {
				return err
			}
			defer reg.Close()

			sched := scheduler.New(reg,
				sessionFactory(cfg),
				handlerFactory(cfg, reg),
				cfg.Workers, cfg.Stagger, logger)

			results := sched.RunBatch(cmd.Context(), specs)

			out := cmd.OutOrStdout()
			failed := 0
			for i, r := range results {
				switch {
				case r.Err != nil:
					failed++
					fmt.Fprintf(out, "%3d  FAILED  %-40s %v\n", i+1, r.Spec.String(), r.Err)
				case r.Outcome != nil && r.Outcome.Cached:
					fmt.Fprintf(out, "%3d  CACHED  %-40s %s\n", i+1, r.Spec.String(), r.Calculation)
				default:
					fmt.Fprintf(out, "%3d  DONE    %-40s %s\n", i+1, r.Spec.String(), r.Calculation)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d calculations failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "batch YAML file")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (overrides config)")
	cmd.MarkFlagRequired("file")

	return cmd
}
