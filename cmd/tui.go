package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/ui"
)

// TUI launches the interactive host console.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/karaoke.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}

	if err := ui.Run(ctx, s); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
