package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowedit/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	var sample bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize rowedit storage",
		Long:  "Create the configuration and data directories, then initialize the record store.\nWith --sample the store is seeded with two example rows.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return sysError(fmt.Errorf("initialize storage: %w", err))
			}
			defer backend.Detach()

			seeded := 0
			if sample {
				seeded, err = backend.Seed(sqlite.SampleRecords())
				if err != nil {
					return sysError(fmt.Errorf("seed sample records: %w", err))
				}
			}

			out := cmd.OutOrStdout()
			if a.jsonMode {
				return writeJSON(out, map[string]any{
					"config_dir": a.configDir,
					"data_dir":   backend.DataDir(),
					"seeded":     seeded,
				})
			}
			fmt.Fprintln(out, "rowedit initialized successfully")
			fmt.Fprintln(out, "  config:", a.configDir)
			fmt.Fprintln(out, "  data:  ", backend.DataDir())
			if sample {
				fmt.Fprintf(out, "  seeded %d sample records\n", seeded)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "seed the store with sample rows")
	return cmd
}
