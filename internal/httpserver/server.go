package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds graceful shutdown when Config leaves it unset.
const DefaultShutdownTimeout = 10 * time.Second

// Config describes one listening server.
type Config struct {
	Name            string // used in log lines
	Addr            string
	ShutdownTimeout time.Duration
}

// Run serves handler on cfg.Addr until ctx ends, then drains open requests
// for at most cfg.ShutdownTimeout. A nil return means a clean stop. If ready
// is non-nil it receives the bound address once the listener is open.
func Run(ctx context.Context, logger *slog.Logger, cfg Config, handler http.Handler, ready chan<- string) error {
	if cfg.Addr == "" {
		return errors.New("httpserver: addr is required")
	}
	if handler == nil {
		return errors.New("httpserver: handler is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	addr := ln.Addr().String()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	logger.Info("listening", "server", cfg.Name, "addr", addr)
	if ready != nil {
		ready <- addr
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped", "server", cfg.Name)
	return nil
}
