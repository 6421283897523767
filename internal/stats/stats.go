// Package stats derives read-only views from a [models.Snapshot]: the leaderboard,
// per-singer song counts, session statistics, per-singer statistics and the
// already-performed check.
//
// Nothing here touches the store. Callers read a snapshot in one transaction and
// hand it over, so every view is computed from a consistent state.
package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

// MinutesPerSong is the time budgeted for one queued song.
const MinutesPerSong = 4

// LeaderboardEntry ranks one singer by average rating.
type LeaderboardEntry struct {
	SingerID      int64   `json:"singer_id" yaml:"singer_id"`
	Name          string  `json:"name" yaml:"name"`
	AverageRating float64 `json:"average_rating" yaml:"average_rating"`
	RatedCount    int     `json:"rated_count" yaml:"rated_count"`
}

// SingerSummary is the per-singer aggregate used in session statistics.
type SingerSummary struct {
	SingerID      int64    `json:"singer_id" yaml:"singer_id"`
	Name          string   `json:"name" yaml:"name"`
	SongCount     int      `json:"song_count" yaml:"song_count"`
	AverageRating *float64 `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
}

// SessionStats summarizes the whole session.
type SessionStats struct {
	TotalSingers              int             `json:"total_singers" yaml:"total_singers"`
	TotalSongsPerformed       int             `json:"total_songs_performed" yaml:"total_songs_performed"`
	SongsInQueue              int             `json:"songs_in_queue" yaml:"songs_in_queue"`
	AverageRating             *float64        `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
	EstimatedMinutesRemaining int             `json:"estimated_minutes_remaining" yaml:"estimated_minutes_remaining"`
	TopSingers                []SingerSummary `json:"top_singers" yaml:"top_singers"`
	MostActiveSinger          *SingerSummary  `json:"most_active_singer,omitempty" yaml:"most_active_singer,omitempty"`
}

// HistoryEntry is one line of a singer's performance history.
type HistoryEntry struct {
	PerformanceID int64     `json:"performance_id" yaml:"performance_id"`
	SongID        *int64    `json:"song_id,omitempty" yaml:"song_id,omitempty"`
	Title         string    `json:"title" yaml:"title"`
	Author        string    `json:"author,omitempty" yaml:"author,omitempty"`
	Rating        *float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	PerformedAt   time.Time `json:"performed_at" yaml:"performed_at"`
}

// SingerStats describes one current singer.
type SingerStats struct {
	Singer        *models.Singer `json:"singer" yaml:"singer"`
	SongCount     int            `json:"song_count" yaml:"song_count"`
	AverageRating *float64       `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
	BestRating    *float64       `json:"best_rating,omitempty" yaml:"best_rating,omitempty"`
	History       []HistoryEntry `json:"history" yaml:"history"`
}

// Round1 returns sum/count rounded half up to one decimal.
//
// Ratings are multiples of 0.5, so the sum is a whole number of half steps and the
// rounding is done in integers: a mean of 4.25 gives exactly 4.3.
func Round1(sum float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	halves := int64(math.Round(sum * 2))
	n := int64(count)
	tenths := (halves*10 + n) / (2 * n)
	return float64(tenths) / 10
}

// WaitMinutes is the estimated wait until the song at 0-based index has finished.
func WaitMinutes(index int) int {
	return (index + 1) * MinutesPerSong
}

// tally accumulates performances for one singer, in first-encounter order.
type tally struct {
	singerID int64
	fallback string
	count    int
	rated    int
	sum      float64
	best     float64
}

func (t *tally) average() *float64 {
	if t.rated == 0 {
		return nil
	}
	avg := Round1(t.sum, t.rated)
	return &avg
}

func tallies(performances []*models.Performance) []*tally {
	index := make(map[int64]*tally)
	var out []*tally
	for _, p := range performances {
		t, ok := index[p.SingerID]
		if !ok {
			t = &tally{singerID: p.SingerID, fallback: p.SingerName}
			index[p.SingerID] = t
			out = append(out, t)
		}
		t.count++
		if p.Rating != nil {
			if t.rated == 0 || *p.Rating > t.best {
				t.best = *p.Rating
			}
			t.rated++
			t.sum += *p.Rating
		}
	}
	return out
}

// resolveName prefers the singer's current name over the snapshot stored with the performance.
func resolveName(singers map[int64]*models.Singer, id int64, fallback string) string {
	if s, ok := singers[id]; ok {
		return s.Name
	}
	return fallback
}

// Leaderboard ranks singers with at least one rated performance by average rating, highest first.
// Equal averages keep the order in which the singers first appear in the log.
func Leaderboard(s *models.Snapshot) []LeaderboardEntry {
	singers := s.SingerByID()
	entries := []LeaderboardEntry{}
	for _, t := range tallies(s.Performances) {
		if t.rated == 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			SingerID:      t.singerID,
			Name:          resolveName(singers, t.singerID, t.fallback),
			AverageRating: Round1(t.sum, t.rated),
			RatedCount:    t.rated,
		})
	}

	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		return cmp.Compare(b.AverageRating, a.AverageRating)
	})
	return entries
}

// SongCounts counts every performance per singer id, rated or not, including singers that were deleted.
func SongCounts(s *models.Snapshot) map[int64]int {
	counts := make(map[int64]int)
	for _, p := range s.Performances {
		counts[p.SingerID]++
	}
	return counts
}

// Session computes the session statistics.
func Session(s *models.Snapshot) SessionStats {
	queued := len(s.Queued())
	stats := SessionStats{
		TotalSingers:              len(s.Singers),
		TotalSongsPerformed:       len(s.Archived()),
		SongsInQueue:              queued,
		EstimatedMinutesRemaining: queued * MinutesPerSong,
		TopSingers:                []SingerSummary{},
	}

	var (
		sum   float64
		rated int
	)
	for _, p := range s.Performances {
		if p.Rating != nil {
			sum += *p.Rating
			rated++
		}
	}
	if rated > 0 {
		avg := Round1(sum, rated)
		stats.AverageRating = &avg
	}

	singers := s.SingerByID()
	var active *tally
	for _, t := range tallies(s.Performances) {
		summary := SingerSummary{
			SingerID:      t.singerID,
			Name:          resolveName(singers, t.singerID, t.fallback),
			SongCount:     t.count,
			AverageRating: t.average(),
		}
		if summary.AverageRating != nil {
			stats.TopSingers = append(stats.TopSingers, summary)
		}
		if active == nil || t.count > active.count {
			active = t
			stats.MostActiveSinger = &summary
		}
	}

	slices.SortStableFunc(stats.TopSingers, func(a, b SingerSummary) int {
		return cmp.Compare(*b.AverageRating, *a.AverageRating)
	})
	return stats
}

// Singer computes the statistics of a current singer.
// It fails with [shared.ErrNotFound] when the singer does not exist.
func Singer(s *models.Snapshot, singerID int64) (*SingerStats, error) {
	singer, ok := s.SingerByID()[singerID]
	if !ok {
		return nil, fmt.Errorf("%w: no data for singer %d", shared.ErrNotFound, singerID)
	}

	archived := make(map[int64]*models.Song)
	for _, song := range s.Archived() {
		archived[song.ID] = song
	}

	stats := &SingerStats{Singer: singer, History: []HistoryEntry{}}
	var performed []*models.Performance
	for _, p := range s.Performances {
		if p.SingerID == singerID {
			performed = append(performed, p)
		}
	}

	if t := tallies(performed); len(t) == 1 {
		stats.SongCount = t[0].count
		stats.AverageRating = t[0].average()
		if t[0].rated > 0 {
			best := t[0].best
			stats.BestRating = &best
		}
	}

	for _, p := range performed {
		entry := HistoryEntry{
			PerformanceID: p.ID,
			SongID:        p.SongID,
			Title:         p.SongTitle,
			Rating:        p.Rating,
			PerformedAt:   p.PerformedAt,
		}
		if p.SongID != nil {
			if song, ok := archived[*p.SongID]; ok {
				entry.Author = song.Author
			}
		}
		stats.History = append(stats.History, entry)
	}

	slices.SortStableFunc(stats.History, func(a, b HistoryEntry) int {
		if c := b.PerformedAt.Compare(a.PerformedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.PerformanceID, a.PerformanceID)
	})
	return stats, nil
}

// CheckPerformed looks for an archived song with the same title and author,
// ignoring case, surrounding whitespace and Unicode composition. The first match in archive order wins.
func CheckPerformed(s *models.Snapshot, title, author string) (*models.Song, bool) {
	want := shared.NormalizeSongKey(title, author)
	for _, song := range s.Archived() {
		if shared.NormalizeSongKey(song.Title, song.Author) == want {
			return song, true
		}
	}
	return nil, false
}
