// package formatter renders a session report as plain text, Markdown, CSV, JSON or YAML
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"gopkg.in/yaml.v3"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/queue"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/stats"
)

// TopSingersShown caps the top performer list in human-readable reports.
const TopSingersShown = 3

// Format is an export format name.
type Format string

const (
	Text     Format = "txt"
	Markdown Format = "md"
	CSV      Format = "csv"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{Text, Markdown, CSV, JSON, YAML}

// ParseFormat accepts a format name or a common alias ("markdown", "text", "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return Text, nil
	case "md", "markdown":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, s)
	}
}

// QueueRow is one queued song with its resolved singer names and estimated wait.
type QueueRow struct {
	Position    int          `json:"position" yaml:"position"`
	Song        *models.Song `json:"song" yaml:"song"`
	Singers     string       `json:"singers" yaml:"singers"`
	WaitMinutes int          `json:"wait_minutes" yaml:"wait_minutes"`
}

// ArchiveRow is one performed song with its resolved singer names.
type ArchiveRow struct {
	Song    *models.Song `json:"song" yaml:"song"`
	Singers string       `json:"singers" yaml:"singers"`
}

// Report is everything an export contains.
type Report struct {
	Session      *models.SessionInfo      `json:"session" yaml:"session"`
	GeneratedAt  time.Time                `json:"generated_at" yaml:"generated_at"`
	Stats        stats.SessionStats       `json:"stats" yaml:"stats"`
	Leaderboard  []stats.LeaderboardEntry `json:"leaderboard" yaml:"leaderboard"`
	Queue        []QueueRow               `json:"queue" yaml:"queue"`
	Archive      []ArchiveRow             `json:"archive" yaml:"archive"`
	Performances []*models.Performance    `json:"performances" yaml:"performances"`
}

// NewReport builds a [Report] from a snapshot.
func NewReport(info *models.SessionInfo, snap *models.Snapshot, now time.Time) *Report {
	singers := snap.SingerByID()
	r := &Report{
		Session:      info,
		GeneratedAt:  now,
		Stats:        stats.Session(snap),
		Leaderboard:  stats.Leaderboard(snap),
		Queue:        []QueueRow{},
		Archive:      []ArchiveRow{},
		Performances: snap.Performances,
	}
	if r.Performances == nil {
		r.Performances = []*models.Performance{}
	}

	queued := snap.Queued()
	for i, song := range queued {
		r.Queue = append(r.Queue, QueueRow{
			Position:    queue.WaitPosition(queued, song.ID),
			Song:        song,
			Singers:     SingerNames(singers, song.SingerIDs),
			WaitMinutes: stats.WaitMinutes(i),
		})
	}
	for _, song := range snap.Archived() {
		r.Archive = append(r.Archive, ArchiveRow{Song: song, Singers: SingerNames(singers, song.SingerIDs)})
	}
	return r
}

// SingerNames joins the names of ids with " & ". Singers that no longer exist show as "#id".
func SingerNames(singers map[int64]*models.Singer, ids []int64) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if s, ok := singers[id]; ok {
			names = append(names, s.Name)
		} else {
			names = append(names, "#"+strconv.FormatInt(id, 10))
		}
	}
	return strings.Join(names, " & ")
}

// FormatRating renders a rating with one decimal, or a dash when unrated.
func FormatRating(r *float64) string {
	if r == nil {
		return "—"
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

func songLabel(song *models.Song) string {
	label := song.Title
	if song.Author != "" {
		label += " - " + song.Author
	}
	if k := models.FormatKey(song.Key); k != "" {
		label += " [" + k + "]"
	}
	return label
}

func sessionName(r *Report) string {
	if r.Session == nil || r.Session.Name == "" {
		return "Karaoke Session"
	}
	return r.Session.Name
}

// ExportToText renders the report as plain text.
func ExportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Session: %s\n", sessionName(r))
	if r.Session != nil && !r.Session.StartedAt.IsZero() {
		fmt.Fprintf(&buf, "Started: %s\n", humanize.RelTime(r.Session.StartedAt, r.GeneratedAt, "ago", "from now"))
	}
	fmt.Fprintf(&buf, "Singers: %d\n", r.Stats.TotalSingers)
	fmt.Fprintf(&buf, "Songs performed: %d\n", r.Stats.TotalSongsPerformed)
	fmt.Fprintf(&buf, "Songs in queue: %d (about %s)\n", r.Stats.SongsInQueue, shared.FormatMinutes(r.Stats.EstimatedMinutesRemaining))
	fmt.Fprintf(&buf, "Average rating: %s\n", FormatRating(r.Stats.AverageRating))
	if m := r.Stats.MostActiveSinger; m != nil {
		fmt.Fprintf(&buf, "Most active: %s (%d songs)\n", m.Name, m.SongCount)
	}

	buf.WriteString("\nLeaderboard:\n")
	for i, e := range r.Leaderboard {
		fmt.Fprintf(&buf, "%s. %s - %.1f (%d rated)\n", humanize.Ordinal(i+1), e.Name, e.AverageRating, e.RatedCount)
	}

	buf.WriteString("\nQueue:\n")
	for _, row := range r.Queue {
		fmt.Fprintf(&buf, "%d. %s - %s (~%s)\n", row.Position, row.Singers, songLabel(row.Song), shared.FormatMinutes(row.WaitMinutes))
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the report as a Markdown document.
func ExportToMarkdown(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", sessionName(r))
	fmt.Fprintf(&buf, "**Singers**: %d\n", r.Stats.TotalSingers)
	fmt.Fprintf(&buf, "**Songs performed**: %d\n", r.Stats.TotalSongsPerformed)
	fmt.Fprintf(&buf, "**Songs in queue**: %d\n", r.Stats.SongsInQueue)
	fmt.Fprintf(&buf, "**Estimated time remaining**: %s\n", shared.FormatMinutes(r.Stats.EstimatedMinutesRemaining))
	fmt.Fprintf(&buf, "**Average rating**: %s\n\n", FormatRating(r.Stats.AverageRating))

	if len(r.Stats.TopSingers) > 0 {
		buf.WriteString("## Top Performers\n\n")
		for i, s := range r.Stats.TopSingers[:min(TopSingersShown, len(r.Stats.TopSingers))] {
			fmt.Fprintf(&buf, "%d. %s (%s, %s)\n", i+1, s.Name, FormatRating(s.AverageRating), english.Plural(s.SongCount, "song", "songs"))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Leaderboard\n\n")
	buf.WriteString("| Rank | Singer | Average | Rated |\n")
	buf.WriteString("|---|---|---|---|\n")
	for i, e := range r.Leaderboard {
		fmt.Fprintf(&buf, "| %s | %s | %.1f | %d |\n", humanize.Ordinal(i+1), e.Name, e.AverageRating, e.RatedCount)
	}

	buf.WriteString("\n## Queue\n\n")
	for _, row := range r.Queue {
		link := ""
		if row.Song.YouTubeURL != "" {
			link = fmt.Sprintf(" ([video](%s))", row.Song.YouTubeURL)
		}
		fmt.Fprintf(&buf, "%d. **%s** - %s%s\n", row.Position, row.Singers, songLabel(row.Song), link)
	}

	buf.WriteString("\n## Performed\n\n")
	for _, row := range r.Archive {
		fmt.Fprintf(&buf, "- %s - %s\n", row.Singers, songLabel(row.Song))
	}

	return buf.Bytes(), nil
}

// ExportToCSV renders the performance log with columns: ID, Song ID, Singer ID, Singer, Title, Rating, Performed At
func ExportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Song ID", "Singer ID", "Singer", "Title", "Rating", "Performed At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range r.Performances {
		songID, rating := "", ""
		if p.SongID != nil {
			songID = strconv.FormatInt(*p.SongID, 10)
		}
		if p.Rating != nil {
			rating = strconv.FormatFloat(*p.Rating, 'f', 1, 64)
		}
		record := []string{
			strconv.FormatInt(p.ID, 10),
			songID,
			strconv.FormatInt(p.SingerID, 10),
			p.SingerName,
			p.SongTitle,
			rating,
			p.PerformedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the full report as indented JSON.
func ExportToJSON(r *Report) ([]byte, error) {
	return shared.MarshalJSON(r, true)
}

// ExportToYAML renders the full report as YAML.
func ExportToYAML(r *Report) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

// Export renders the report in the given format.
func Export(r *Report, f Format) ([]byte, error) {
	switch f {
	case Text:
		return ExportToText(r)
	case Markdown:
		return ExportToMarkdown(r)
	case CSV:
		return ExportToCSV(r)
	case JSON:
		return ExportToJSON(r)
	case YAML:
		return ExportToYAML(r)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, f)
	}
}

// Filename is the file name used for a format inside an export directory.
func Filename(f Format) string {
	if f == CSV {
		return "performances.csv"
	}
	return "session." + string(f)
}

// WriteExport renders the report and writes it to path, creating parent directories.
//
// Defaults to [Filename] in the current directory.
func WriteExport(r *Report, f Format, path string) (string, error) {
	if path == "" {
		path = Filename(f)
	}

	data, err := Export(r, f)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
