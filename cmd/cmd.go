// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// singerCommand handles the singer rotation
func singerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "singer",
		Aliases: []string{"singers"},
		Usage:   "Manage singers and the turn order",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a singer at the back of the rotation",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.SingerAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List singers in turn order",
				Flags:   []cli.Flag{jsonFlag(), prettyFlag()},
				Action:  r.SingerList,
			},
			{
				Name:  "rename",
				Usage: "Rename a singer (logged performances keep the old name)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "singer"},
					&cli.StringArg{Name: "name"},
				},
				Action: r.SingerRename,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove a singer by id or name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "singer"}},
				Action:    r.SingerDelete,
			},
			{
				Name:   "clear",
				Usage:  "Remove every singer",
				Action: r.SingerClear,
			},
			{
				Name:      "rotate",
				Usage:     "Send singers to the back of the rotation, in the given order",
				ArgsUsage: "<singer>...",
				Action:    r.SingerRotate,
			},
			{
				Name:      "stats",
				Usage:     "Show a singer's performance history and ratings",
				Arguments: []cli.Argument{&cli.StringArg{Name: "singer"}},
				Flags:     []cli.Flag{jsonFlag(), prettyFlag()},
				Action:    r.SingerStats,
			},
		},
	}
}

// songCommand handles the queue and the archive
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "song",
		Aliases: []string{"songs", "queue"},
		Usage:   "Manage the song queue",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Queue a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "title"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Song author or artist"},
					&cli.StringSliceFlag{Name: "singer", Aliases: []string{"s"}, Usage: "Singer id or name (repeatable)"},
					&cli.StringFlag{Name: "key", Aliases: []string{"k"}, Usage: "Key adjustment in semitones, -12..12"},
					&cli.StringFlag{Name: "url", Usage: "YouTube link"},
					&cli.StringFlag{Name: "mode", Usage: "Queue mode: append or fair-play (defaults to the session setting)"},
				},
				Action: r.SongAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List queued songs with estimated waits",
				Flags:   []cli.Flag{jsonFlag(), prettyFlag()},
				Action:  r.SongList,
			},
			{
				Name:   "archived",
				Usage:  "List performed songs",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.SongArchived,
			},
			{
				Name:      "edit",
				Usage:     "Edit a song's fields",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "author", Usage: "New author"},
					&cli.StringSliceFlag{Name: "singer", Aliases: []string{"s"}, Usage: "Replace singers (repeatable)"},
					&cli.StringFlag{Name: "key", Usage: "New key adjustment"},
					&cli.BoolFlag{Name: "clear-key", Usage: "Remove the key adjustment"},
					&cli.StringFlag{Name: "url", Usage: "New YouTube link"},
				},
				Action: r.SongEdit,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongDelete,
			},
			{
				Name:      "move",
				Usage:     "Move a queued song to a position or by an offset",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "to", Usage: "1-based queue position"},
					&cli.IntFlag{Name: "by", Usage: "Places to move; negative moves up"},
				},
				Action: r.SongMove,
			},
			{
				Name:      "archive",
				Usage:     "Mark a song performed without logging a performance",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongArchive,
			},
			{
				Name:      "complete",
				Aliases:   []string{"done"},
				Usage:     "Archive a song, log a performance per singer and rotate them",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating 0-5 in half steps; 0 or empty is unrated"},
					&cli.BoolFlag{Name: "rotate", Usage: "Send the singers to the back of the rotation (defaults to the session setting)"},
				},
				Action: r.SongComplete,
			},
			{
				Name:      "check",
				Usage:     "Check whether a song was already performed tonight",
				Arguments: []cli.Argument{&cli.StringArg{Name: "title"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Song author or artist"},
					jsonFlag(),
				},
				Action: r.SongCheck,
			},
			{
				Name:      "open",
				Usage:     "Open a song's YouTube link in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongOpen,
			},
			{
				Name:   "clear",
				Usage:  "Remove every song, queued and archived",
				Action: r.SongClear,
			},
		},
	}
}

// perfCommand handles the performance log
func perfCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "perf",
		Aliases: []string{"performance", "performances"},
		Usage:   "Inspect and edit the performance log",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List logged performances, oldest first",
				Flags:   []cli.Flag{jsonFlag(), prettyFlag()},
				Action:  r.PerfList,
			},
			{
				Name:  "add",
				Usage: "Log a performance by hand",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "singer", Aliases: []string{"s"}, Usage: "Singer id or name", Required: true},
					&cli.StringFlag{Name: "title", Usage: "Song title (taken from --song when empty)"},
					&cli.StringFlag{Name: "song", Usage: "Song id"},
					&cli.StringFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating 0-5 in half steps"},
				},
				Action: r.PerfAdd,
			},
			{
				Name:   "clear",
				Usage:  "Empty the performance log",
				Action: r.PerfClear,
			},
		},
	}
}

// boardCommand handles aggregate views
func boardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "Leaderboard and session statistics",
		Commands: []*cli.Command{
			{
				Name:   "leaderboard",
				Usage:  "Rank singers by average rating",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.BoardLeaderboard,
			},
			{
				Name:   "stats",
				Usage:  "Summarize the session",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.BoardStats,
			},
			{
				Name:   "counts",
				Usage:  "Count performances per singer",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.BoardCounts,
			},
		},
	}
}

// sessionCommand handles the session lifecycle
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Session lifecycle, demo data and exports",
		Commands: []*cli.Command{
			{
				Name:   "info",
				Usage:  "Show the current session",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.SessionInfo,
			},
			{
				Name:  "reset",
				Usage: "Remove everything and start a new session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name for the new session (keeps the current name when empty)"},
				},
				Action: r.SessionReset,
			},
			{
				Name:      "rename",
				Usage:     "Rename the current session",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.SessionRename,
			},
			{
				Name:  "seed",
				Usage: "Replace the session with example singers, songs and ratings",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "seed", Usage: "Random seed for repeatable data"},
				},
				Action: r.SessionSeed,
			},
			{
				Name:  "export",
				Usage: "Export the session in several formats",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "format", Aliases: []string{"f"}, Usage: "txt, md, csv, json or yaml (repeatable, default all)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent writers", Value: 3},
				},
				Action: r.SessionExport,
			},
		},
	}
}

// serveCommand starts the display board
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the display board and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides server.host)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides server.port)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for running the night interactively.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive host console",
		Action:  r.TUI,
	}
}
