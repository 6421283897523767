package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/server"
	"github.com/desertthunder/karaoke/internal/shared"
)

// Serve runs the display board until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	srv := server.New(cfg, s, shared.WithLogger(r.logger, "component", "board"))
	r.writePlain("🎤 Display board on http://%s\n", srv.Addr())
	return srv.ListenAndServe(ctx)
}
