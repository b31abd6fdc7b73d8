package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the records of the remote collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			records, err := c.Fetch(cmd.Context())
			if err != nil {
				return sysError(fmt.Errorf("list: %w", err))
			}
			return a.printRecords(cmd.OutOrStdout(), schemaFrom(a.v), records)
		},
	}
}
