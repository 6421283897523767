// Package web renders the HTML display board.
//
// The page is a single server-rendered document built from a [formatter.Report]:
// the next song in large type, the rest of the queue with wait estimates, and the
// top of the leaderboard. When [Page.Refresh] names an event stream, a few lines of
// script reload the page whenever the session changes.
package web

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/stats"
)

// LeadersShown caps the leaderboard on the board.
const LeadersShown = 5

//go:embed board.html
var boardHTML string

var boardTemplate = template.Must(template.New("board").Funcs(template.FuncMap{
	"minutes": shared.FormatMinutes,
	"rating":  formatter.FormatRating,
	"key":     models.FormatKey,
	"ordinal": humanize.Ordinal,
	"inc":     func(i int) int { return i + 1 },
}).Parse(boardHTML))

// Page is the data behind one render of the board.
type Page struct {
	Report  *formatter.Report
	Refresh string // Event stream URL; empty disables live reload
}

// Title is the session name or a generic heading.
func (p Page) Title() string {
	if p.Report == nil || p.Report.Session == nil || p.Report.Session.Name == "" {
		return "Karaoke"
	}
	return p.Report.Session.Name
}

// Next is the song on stage, if any.
func (p Page) Next() *formatter.QueueRow {
	if p.Report == nil || len(p.Report.Queue) == 0 {
		return nil
	}
	return &p.Report.Queue[0]
}

// Upcoming is the queue after the next song.
func (p Page) Upcoming() []formatter.QueueRow {
	if p.Report == nil || len(p.Report.Queue) < 2 {
		return nil
	}
	return p.Report.Queue[1:]
}

// Leaders is the top of the leaderboard.
func (p Page) Leaders() []stats.LeaderboardEntry {
	if p.Report == nil {
		return nil
	}
	return p.Report.Leaderboard[:min(LeadersShown, len(p.Report.Leaderboard))]
}

// Render writes the board page to w.
func Render(w io.Writer, page Page) error {
	if err := boardTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render board: %w", err)
	}
	return nil
}
