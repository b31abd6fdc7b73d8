package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add field=value...",
		Short: "Add a record to the remote collection",
		Long: `Add creates a record from field=value pairs. The server assigns the id.

Example:
  rowedit add name=Gamma value=03`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args)
			if err != nil {
				return userError(err)
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			rec, err := c.Create(cmd.Context(), fields)
			if err != nil {
				return sysError(fmt.Errorf("add: %w", err))
			}
			return a.printRecord(cmd.OutOrStdout(), schemaFrom(a.v), rec)
		},
	}
}
