package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowedit/pkg/rowedit"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> [field=value...]",
		Short: "Edit one record and commit it to the remote",
		Long: `Edit runs one edit session: it stages the record's editable fields, applies
each field=value pair in order and commits the staged values as a single
partial update. A failed commit prints the session error and exits 1.

Example:
  rowedit edit 1 name=AlphaEdited`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			pairs, err := orderedAssignments(args[1:])
			if err != nil {
				return userError(err)
			}
			cfg, err := a.editorConfig()
			if err != nil {
				return userError(err)
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			records, err := c.Fetch(cmd.Context())
			if err != nil {
				return sysError(fmt.Errorf("edit: %w", err))
			}

			ed, err := rowedit.Open(cfg, c, records, rowedit.WithLogger(a.logger))
			if err != nil {
				return userError(err)
			}
			defer ed.Close()

			if _, err := ed.StartEdit(id); err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return userError(fmt.Errorf("record %q not found", id))
				}
				return sysError(err)
			}
			for _, p := range pairs {
				if _, err := ed.ChangeField(p[0], p[1]); err != nil {
					return userError(fmt.Errorf("field %q: %w", p[0], err))
				}
			}

			st, err := ed.Commit(cmd.Context())
			if err != nil {
				return sysError(err)
			}
			if st.Open {
				return userError(fmt.Errorf("commit: %s", st.Error))
			}

			for _, r := range ed.Snapshot() {
				if r.ID == id {
					return a.printRecord(cmd.OutOrStdout(), cfg.Fields, r)
				}
			}
			return nil
		},
	}
}
