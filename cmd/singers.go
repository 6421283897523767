package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/shared"
)

// SingerAdd adds a singer at the back of the rotation.
func (r *Runner) SingerAdd(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	singer, err := s.AddSinger(ctx, name)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added singer #%d %s\n", singer.ID, singer.Name)
}

// SingerList lists singers in turn order.
func (r *Runner) SingerList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	singers, err := s.Singers(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(singers, cmd.Bool("pretty"))
	}

	counts, err := s.SongCounts(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Singers (%d)", len(singers)))
	if len(singers) == 0 {
		return r.writePlain("No singers yet. Add one with: karaoke singer add <name>\n")
	}
	for i, singer := range singers {
		r.writePlain("%2d. %-24s #%-4d %s\n", i+1, singer.Name, singer.ID, songsLabel(counts[singer.ID]))
	}
	return nil
}

// SingerRename renames a singer.
func (r *Runner) SingerRename(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	singer, err := resolveSinger(ctx, s, cmd.StringArg("singer"))
	if err != nil {
		return err
	}
	old := singer.Name
	if singer, err = s.RenameSinger(ctx, singer.ID, name); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed %s to %s\n", old, singer.Name)
}

// SingerDelete removes a singer.
func (r *Runner) SingerDelete(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	singer, err := resolveSinger(ctx, s, cmd.StringArg("singer"))
	if err != nil {
		return err
	}
	if err := s.DeleteSinger(ctx, singer.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed singer %s\n", singer.Name)
}

// SingerClear removes every singer.
func (r *Runner) SingerClear(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.ClearSingers(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Cleared all singers\n")
}

// SingerRotate sends the named singers to the back of the rotation.
func (r *Runner) SingerRotate(ctx context.Context, cmd *cli.Command) error {
	refs := cmd.Args().Slice()
	if len(refs) == 0 {
		return fmt.Errorf("%w: at least one singer", shared.ErrMissingArgument)
	}

	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	ids, err := resolveSingers(ctx, s, refs)
	if err != nil {
		return err
	}
	if err := s.RotateSingers(ctx, ids); err != nil {
		return err
	}
	return r.writePlain("✓ Rotated %d %s to the back\n", len(ids), plural(len(ids), "singer", "singers"))
}

// SingerStats prints one singer's history.
func (r *Runner) SingerStats(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}
	singer, err := resolveSinger(ctx, s, cmd.StringArg("singer"))
	if err != nil {
		return err
	}
	st, err := s.SingerStats(ctx, singer.ID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(st, cmd.Bool("pretty"))
	}

	r.writePlainHeader(st.Singer.Name)
	r.writePlain("Songs performed: %d\n", st.SongCount)
	r.writePlain("Average rating:  %s\n", formatter.FormatRating(st.AverageRating))
	r.writePlain("Best rating:     %s\n", formatter.FormatRating(st.BestRating))

	if len(st.History) == 0 {
		return nil
	}
	r.writePlainln("History:")
	for _, h := range st.History {
		title := h.Title
		if h.Author != "" {
			title += " - " + h.Author
		}
		r.writePlain("  • %-36s %4s  %s\n", title, formatter.FormatRating(h.Rating), humanize.Time(h.PerformedAt))
	}
	return nil
}

func songsLabel(n int) string {
	return fmt.Sprintf("%d %s", n, plural(n, "song", "songs"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
