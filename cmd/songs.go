package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/queue"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/tasks"
)

// SongAdd queues a song, warning when it was already performed tonight.
func (r *Runner) SongAdd(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	key, err := models.ParseKey(cmd.String("key"))
	if err != nil {
		return err
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}

	mode := s.Mode()
	if cmd.IsSet("mode") {
		if mode, err = queue.ParseMode(cmd.String("mode")); err != nil {
			return err
		}
	}

	singerIDs, err := resolveSingers(ctx, s, cmd.StringSlice("singer"))
	if err != nil {
		return err
	}

	author := cmd.String("author")
	if prev, ok, err := s.CheckPerformed(ctx, title, author); err != nil {
		return err
	} else if ok {
		r.writePlain("%s\n", mutedStyle.Render(fmt.Sprintf("Note: %q was already performed %s", prev.Title, performedAgo(prev))))
	}

	song, err := s.AddSong(ctx, tasks.SongInput{
		Title:      title,
		Author:     author,
		SingerIDs:  singerIDs,
		Key:        key,
		YouTubeURL: cmd.String("url"),
	}, mode)
	if err != nil {
		return err
	}

	queued, err := s.QueuedSongs(ctx)
	if err != nil {
		return err
	}
	position := queue.WaitPosition(queued, song.ID)
	return r.writePlain("✓ Queued #%d %s at position %d (%s)\n", song.ID, song.Title, position, mode)
}

// SongList prints the queue with resolved singers and estimated waits.
func (r *Runner) SongList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	report, err := s.Report(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(report.Queue, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Queue · %s", report.Session.Name))
	if len(report.Queue) == 0 {
		return r.writePlain("The queue is empty.\n")
	}
	for _, row := range report.Queue {
		r.writePlain("%2d. %-40s %-24s ~%s  #%d\n",
			row.Position, songTitle(row.Song), row.Singers, shared.FormatMinutes(row.WaitMinutes), row.Song.ID)
	}
	r.writePlainln("Estimated time remaining: %s", shared.FormatMinutes(report.Stats.EstimatedMinutesRemaining))
	return nil
}

// SongArchived lists performed songs in completion order.
func (r *Runner) SongArchived(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	report, err := s.Report(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(report.Archive, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Performed (%d)", len(report.Archive)))
	if len(report.Archive) == 0 {
		return r.writePlain("Nothing performed yet.\n")
	}
	for _, row := range report.Archive {
		r.writePlain("  • %-40s %-24s %s\n", songTitle(row.Song), row.Singers, performedAgo(row.Song))
	}
	return nil
}

// SongEdit applies only the flags that were given.
func (r *Runner) SongEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "song")
	if err != nil {
		return err
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}

	var patch models.SongPatch
	if cmd.IsSet("title") {
		title := cmd.String("title")
		patch.Title = &title
	}
	if cmd.IsSet("author") {
		author := cmd.String("author")
		patch.Author = &author
	}
	if cmd.IsSet("url") {
		url := cmd.String("url")
		patch.YouTubeURL = &url
	}
	if cmd.IsSet("key") {
		if patch.Key, err = models.ParseKey(cmd.String("key")); err != nil {
			return err
		}
	}
	patch.ClearKey = cmd.Bool("clear-key")
	if cmd.IsSet("singer") {
		if patch.SingerIDs, err = resolveSingers(ctx, s, cmd.StringSlice("singer")); err != nil {
			return err
		}
	}

	song, err := s.UpdateSong(ctx, id, patch)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated #%d %s\n", song.ID, songTitle(song))
}

// SongDelete removes a song in either state.
func (r *Runner) SongDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "song")
	if err != nil {
		return err
	}
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.DeleteSong(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted song #%d\n", id)
}

// SongMove reorders a queued song by absolute position (--to) or offset (--by).
func (r *Runner) SongMove(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "song")
	if err != nil {
		return err
	}

	toSet, bySet := cmd.IsSet("to"), cmd.IsSet("by")
	switch {
	case toSet == bySet:
		return fmt.Errorf("%w: exactly one of --to or --by", shared.ErrInvalidArgument)
	case toSet && cmd.Int("to") < 1:
		return fmt.Errorf("%w: --to must be 1 or more", shared.ErrInvalidArgument)
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	if toSet {
		err = s.ReorderSong(ctx, id, cmd.Int("to")-1)
	} else {
		err = s.MoveSong(ctx, id, cmd.Int("by"))
	}
	if err != nil {
		return err
	}

	queued, err := s.QueuedSongs(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Song #%d is now at position %d\n", id, queue.WaitPosition(queued, id))
}

// SongArchive marks a song performed without logging anything.
func (r *Runner) SongArchive(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "song")
	if err != nil {
		return err
	}
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.ArchiveSong(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Archived song #%d\n", id)
}

// SongComplete archives a song, logs its performances and optionally rotates its singers.
func (r *Runner) SongComplete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "song")
	if err != nil {
		return err
	}
	rating, err := models.ParseRating(cmd.String("rating"))
	if err != nil {
		return err
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	rotate := s.AutoRotate()
	if cmd.IsSet("rotate") {
		rotate = cmd.Bool("rotate")
	}

	result, err := s.CompleteSong(ctx, id, rating, rotate)
	if err != nil {
		return err
	}

	r.writePlain("✓ Completed %s\n", songTitle(result.Song))
	for _, p := range result.Performances {
		r.writePlain("  • %s: %s\n", p.SingerName, formatter.FormatRating(p.Rating))
	}
	if len(result.Rotated) > 0 {
		r.writePlain("✓ Rotated %d %s to the back\n", len(result.Rotated), plural(len(result.Rotated), "singer", "singers"))
	}
	return nil
}

// SongCheck reports whether a title and author were already performed.
func (r *Runner) SongCheck(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	song, ok, err := s.CheckPerformed(ctx, title, cmd.String("author"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Performed bool         `json:"performed"`
			Song      *models.Song `json:"song,omitempty"`
		}{ok, song}, false)
	}
	if !ok {
		return r.writePlain("Not performed yet: %s\n", title)
	}
	return r.writePlain("Already performed: %s (%s)\n", songTitle(song), performedAgo(song))
}

// SongOpen opens a song's video link.
func (r *Runner) SongOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "song")
	if err != nil {
		return err
	}
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	song, err := s.Song(ctx, id)
	if err != nil {
		return err
	}
	if song.YouTubeURL == "" {
		return fmt.Errorf("%w: song #%d has no video link", shared.ErrInvalidArgument, id)
	}

	r.logger.Info("opening video", "song", song.Title, "url", song.YouTubeURL)
	if err := shared.OpenBrowser(song.YouTubeURL); err != nil {
		return err
	}
	return r.writePlain("✓ Opened %s\n", song.YouTubeURL)
}

// SongClear removes every song.
func (r *Runner) SongClear(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.ClearSongs(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Cleared all songs\n")
}

func songTitle(song *models.Song) string {
	title := song.Title
	if song.Author != "" {
		title += " - " + song.Author
	}
	if k := models.FormatKey(song.Key); k != "" {
		title += " [" + k + "]"
	}
	return title
}

func performedAgo(song *models.Song) string {
	if song.CompletedAt == nil {
		return "earlier"
	}
	return humanize.Time(*song.CompletedAt)
}
