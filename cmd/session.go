package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/tasks"
)

// SessionInfo prints the session identity and settings.
func (r *Runner) SessionInfo(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	info, err := s.Info(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlainHeader(info.Name)
	r.writePlain("ID:             %s\n", info.UUID)
	r.writePlain("Started:        %s\n", humanize.Time(info.StartedAt))
	r.writePlain("Database:       %s (schema v%d)\n", s.Config().Database.Path, info.SchemaVersion)
	r.writePlain("Fair play:      %t\n", s.FairPlay())
	r.writePlain("Auto-rotate:    %t\n", s.AutoRotate())
	return nil
}

// SessionReset removes everything and starts a new session.
func (r *Runner) SessionReset(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	info, err := s.Reset(ctx, cmd.String("name"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Started a new session: %s\n", info.Name)
}

// SessionRename renames the session.
func (r *Runner) SessionRename(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.RenameSession(ctx, name); err != nil {
		return err
	}
	return r.writePlain("✓ Session renamed to %s\n", name)
}

// SessionSeed replaces the session with example data, printing progress as it goes.
func (r *Runner) SessionSeed(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if cmd.IsSet("seed") {
		seed := uint64(cmd.Int("seed"))
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	progressCh, done := r.printProgress(func(update tasks.ProgressUpdate) {
		switch update.Phase {
		case tasks.ResetSession:
			r.writePlain("🧹 %s\n", update.Message)
		case tasks.SeedSingers:
			r.writePlain("🎤 %s\n", update.Message)
		default:
			r.writePlain("   %s\n", update.Message)
		}
	})
	result, err := s.LoadExampleData(ctx, rng, progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Loaded example data into %s", result.Session.Name)
	r.writePlain("Singers: %d\nQueued: %d\nPerformed: %d\nPerformances: %d\n",
		result.Singers, result.Queued, result.Archived, result.Performances)
	return nil
}

// SessionExport writes the session in several formats at once.
func (r *Runner) SessionExport(ctx context.Context, cmd *cli.Command) error {
	var formats []formatter.Format
	for _, name := range cmd.StringSlice("format") {
		f, err := formatter.ParseFormat(name)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}

	r.writePlain("Exporting session...\n")
	progressCh, done := r.printProgress(func(update tasks.ProgressUpdate) {
		switch update.Phase {
		case tasks.WriteManifest:
			r.writePlain("\n📝 %s\n", update.Message)
		default:
			r.writePlain("   %s\n", update.Message)
		}
	})
	result, err := s.Export(ctx, progressCh, tasks.ExportOpts{
		Formats:    formats,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("═══════════════════════════════════════")
	r.writePlain("Export Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", filepath.Base(result.ManifestPath))
	r.writePlain("Written: %d/%d\n", result.Successful, result.Successful+result.Failed)

	if result.Failed > 0 {
		r.writePlain("\nFailed formats:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.Format, res.Error)
			}
		}
		return fmt.Errorf("%d of %d formats failed", result.Failed, len(result.Results))
	}
	return nil
}

// printProgress drains progress updates on a goroutine. Close the returned channel, then wait on done.
func (r *Runner) printProgress(fn func(tasks.ProgressUpdate)) (chan tasks.ProgressUpdate, <-chan struct{}) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			fn(update)
		}
	}()
	return progressCh, done
}
