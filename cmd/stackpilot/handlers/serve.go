package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/stackpilot/internal/router"
	"github.com/imamik/stackpilot/internal/server"
)

// Factory function variables for serve - can be replaced in tests.
var (
	// listenAndServe runs the server until ctx is cancelled.
	listenAndServe = func(ctx context.Context, srv *server.Server, addr string) error {
		return srv.ListenAndServe(ctx, addr)
	}
)

// Serve runs the agent server in the configured role until interrupted.
func Serve(ctx context.Context, opts Options, addr string) error {
	e, err := setup(opts)
	if err != nil {
		return err
	}

	role, err := router.ParseRole(e.cfg.Role)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = e.cfg.ListenAddr
	}

	prov, err := e.provisioner(ctx)
	if err != nil {
		return err
	}
	r, err := e.router(ctx, prov, role)
	if err != nil {
		return err
	}

	srv := server.New(r,
		server.WithLogger(e.log),
		server.WithShutdownGrace(e.timeouts.ShutdownGrace),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.log.Info("starting agent server", "role", string(role), "addr", addr, "region", e.cfg.Region)
	if err := listenAndServe(ctx, srv, addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	e.log.Info("agent server stopped")
	return nil
}
