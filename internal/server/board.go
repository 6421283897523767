package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/stats"
	"github.com/desertthunder/karaoke/internal/web"
)

// SingerRow is one singer on the board, in turn order.
type SingerRow struct {
	*models.Singer
	Turn      int `json:"turn"`
	SongCount int `json:"song_count"`
	Queued    int `json:"queued"`
}

// CheckResult answers "has this song been performed tonight?".
type CheckResult struct {
	Performed bool         `json:"performed"`
	Song      *models.Song `json:"song,omitempty"`
}

// Board serves the session as JSON and as an HTML page for a venue screen. It never writes.
type Board struct {
	src    Source
	logger *log.Logger
	now    func() time.Time
}

// NewBoard creates a [Board] over src.
func NewBoard(src Source, logger *log.Logger) *Board {
	return &Board{src: src, logger: logger, now: time.Now}
}

// Mount registers every board route on r.
func (b *Board) Mount(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(b.health))
	r.Handle(http.MethodGet, "/{$}", http.HandlerFunc(b.page))
	r.Handle(http.MethodGet, "/api/session", http.HandlerFunc(b.session))
	r.Handle(http.MethodGet, "/api/queue", http.HandlerFunc(b.queue))
	r.Handle(http.MethodGet, "/api/singers", http.HandlerFunc(b.singers))
	r.Handle(http.MethodGet, "/api/singers/{id}/stats", http.HandlerFunc(b.singerStats))
	r.Handle(http.MethodGet, "/api/leaderboard", http.HandlerFunc(b.leaderboard))
	r.Handle(http.MethodGet, "/api/stats", http.HandlerFunc(b.stats))
	r.Handle(http.MethodGet, "/api/check", http.HandlerFunc(b.check))
}

func (b *Board) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Board) session(w http.ResponseWriter, r *http.Request) {
	info, err := b.src.Info(r.Context())
	if err != nil {
		b.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (b *Board) queue(w http.ResponseWriter, r *http.Request) {
	report, ok := b.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Queue)
}

func (b *Board) singers(w http.ResponseWriter, r *http.Request) {
	snap, err := b.src.Snapshot(r.Context())
	if err != nil {
		b.fail(w, err)
		return
	}

	counts := stats.SongCounts(snap)
	queued := make(map[int64]int)
	for _, song := range snap.Queued() {
		for _, id := range song.SingerIDs {
			queued[id]++
		}
	}

	rows := make([]SingerRow, 0, len(snap.Singers))
	for i, singer := range snap.Singers {
		rows = append(rows, SingerRow{
			Singer:    singer,
			Turn:      i + 1,
			SongCount: counts[singer.ID],
			Queued:    queued[singer.ID],
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (b *Board) singerStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "singer id must be a number")
		return
	}

	snap, err := b.src.Snapshot(r.Context())
	if err != nil {
		b.fail(w, err)
		return
	}

	st, err := stats.Singer(snap, id)
	if err != nil {
		b.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (b *Board) leaderboard(w http.ResponseWriter, r *http.Request) {
	snap, err := b.src.Snapshot(r.Context())
	if err != nil {
		b.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Leaderboard(snap))
}

func (b *Board) stats(w http.ResponseWriter, r *http.Request) {
	snap, err := b.src.Snapshot(r.Context())
	if err != nil {
		b.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Session(snap))
}

func (b *Board) check(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	snap, err := b.src.Snapshot(r.Context())
	if err != nil {
		b.fail(w, err)
		return
	}

	song, ok := stats.CheckPerformed(snap, title, r.URL.Query().Get("author"))
	writeJSON(w, http.StatusOK, CheckResult{Performed: ok, Song: song})
}

func (b *Board) page(w http.ResponseWriter, r *http.Request) {
	report, ok := b.report(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Render(w, web.Page{Report: report, Refresh: "/api/events"}); err != nil {
		b.logger.Error("failed to render board", "error", err)
	}
}

func (b *Board) report(w http.ResponseWriter, r *http.Request) (*formatter.Report, bool) {
	info, err := b.src.Info(r.Context())
	if err != nil {
		b.fail(w, err)
		return nil, false
	}
	snap, err := b.src.Snapshot(r.Context())
	if err != nil {
		b.fail(w, err)
		return nil, false
	}
	return formatter.NewReport(info, snap, b.now()), true
}

// fail maps err to a status code and writes it as JSON.
func (b *Board) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		b.logger.Error("board query failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
