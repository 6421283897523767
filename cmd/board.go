package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/tasks"
)

// PerfList prints the performance log.
func (r *Runner) PerfList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	perfs, err := s.Performances(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(perfs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Performances (%d)", len(perfs)))
	for _, p := range perfs {
		r.writePlain("%4d. %-20s %-36s %4s  %s\n",
			p.ID, p.SingerName, p.SongTitle, formatter.FormatRating(p.Rating), humanize.Time(p.PerformedAt))
	}
	return nil
}

// PerfAdd logs a performance by hand.
func (r *Runner) PerfAdd(ctx context.Context, cmd *cli.Command) error {
	rating, err := models.ParseRating(cmd.String("rating"))
	if err != nil {
		return err
	}

	in := tasks.PerformanceInput{SongTitle: cmd.String("title"), Rating: rating}
	if cmd.IsSet("song") {
		id, err := parseID(cmd.String("song"), "song")
		if err != nil {
			return err
		}
		in.SongID = &id
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	singer, err := resolveSinger(ctx, s, cmd.String("singer"))
	if err != nil {
		return err
	}
	in.SingerID = singer.ID

	p, err := s.AddPerformance(ctx, in)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Logged %s singing %s (%s)\n", p.SingerName, p.SongTitle, formatter.FormatRating(p.Rating))
}

// PerfClear empties the performance log.
func (r *Runner) PerfClear(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.ClearPerformances(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Cleared the performance log\n")
}

// BoardLeaderboard ranks singers by average rating.
func (r *Runner) BoardLeaderboard(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	entries, err := s.Leaderboard(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Leaderboard")
	if len(entries) == 0 {
		return r.writePlain("No rated performances yet.\n")
	}
	for i, e := range entries {
		r.writePlain("%-5s %-24s %s (%d rated)\n",
			humanize.Ordinal(i+1), e.Name, formatter.FormatRating(&e.AverageRating), e.RatedCount)
	}
	return nil
}

// BoardStats prints the session summary.
func (r *Runner) BoardStats(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	report, err := s.Report(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(report.Stats, cmd.Bool("pretty"))
	}

	data, err := formatter.ExportToText(report)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// BoardCounts prints the number of performances per current singer.
func (r *Runner) BoardCounts(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	counts, err := s.SongCounts(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(counts, cmd.Bool("pretty"))
	}

	singers, err := s.Singers(ctx)
	if err != nil {
		return err
	}
	r.writePlainHeader("Songs per singer")
	for _, singer := range singers {
		r.writePlain("%-24s %s\n", singer.Name, songsLabel(counts[singer.ID]))
	}
	return nil
}
