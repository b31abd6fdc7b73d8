package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowedit/internal/httpserver"
	"github.com/mesh-intelligence/rowedit/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the record store over HTTP",
		Long: `Serve exposes the record store at /api/data until interrupted.

Routes:
  GET   /api/data        list records
  GET   /api/data/{id}   get one record
  PATCH /api/data/{id}   merge fields into a record
  POST  /api/data        create a record
  GET   /healthz, /readyz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.v.GetString(cfgKeyServerAddr)
			}

			backend, err := a.attachBackend()
			if err != nil {
				return sysError(err)
			}
			defer backend.Detach()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			api := server.New(a.logger, backend)
			err = httpserver.Run(ctx, a.logger, httpserver.Config{
				Name:            server.Service,
				Addr:            addr,
				ShutdownTimeout: 10 * time.Second,
			}, api.Handler(), nil)
			if err != nil {
				return sysError(fmt.Errorf("serve: %w", err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	return cmd
}
