package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowedit/pkg/rowedit"
)

const modulePath = "github.com/mesh-intelligence/rowedit"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rowedit version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "rowedit %s\nmodule: %s\n", rowedit.Version, modulePath)
			return nil
		},
	}
}
