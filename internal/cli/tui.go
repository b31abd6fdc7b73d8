package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowedit/internal/logging"
	"github.com/mesh-intelligence/rowedit/internal/paths"
	"github.com/mesh-intelligence/rowedit/internal/tui"
	"github.com/mesh-intelligence/rowedit/pkg/rowedit"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit the remote collection interactively",
		Long: `Tui opens a table of the remote records. Select a row and press e or enter
to edit it, tab to move between fields, enter to save, esc to cancel,
r to reload and q to quit. Logs go to a dated file under log.dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.editorConfig()
			if err != nil {
				return userError(err)
			}

			logDir, err := paths.ResolveLogDir(a.v.GetString(cfgKeyLogDir))
			if err != nil {
				return sysError(fmt.Errorf("resolve log dir: %w", err))
			}
			logger, closer, err := logging.OpenFile(logging.FileOptions{
				Dir:   logDir,
				Level: a.v.GetString(cfgKeyLogLevel),
			})
			if err != nil {
				return sysError(err)
			}
			defer closer.Close()
			a.logger = logger

			c, err := a.client()
			if err != nil {
				return err
			}
			records, err := c.Fetch(cmd.Context())
			if err != nil {
				return sysError(fmt.Errorf("tui: %w", err))
			}

			ed, err := rowedit.Open(cfg, c, records, rowedit.WithLogger(logger))
			if err != nil {
				return userError(err)
			}
			defer ed.Close()

			logger.Info("tui started", "rows", len(records), "remote", a.v.GetString(cfgKeyRemoteBaseURL))
			return tui.Run(cmd.Context(), ed, c.Fetch,
				tui.WithLogger(logger),
				tui.WithTitle("rowedit  "+a.v.GetString(cfgKeyRemoteBaseURL)),
			)
		},
	}
}
