package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/karaoke/internal/shared"
)

// SongStatus is the lifecycle state of a [Song]. The only transition is queued to archived.
type SongStatus string

const (
	StatusQueued   SongStatus = "queued"
	StatusArchived SongStatus = "archived"
)

// Valid reports whether s is a known status.
func (s SongStatus) Valid() bool {
	return s == StatusQueued || s == StatusArchived
}

// Transposition limits in semitones.
const (
	MinKey = -12
	MaxKey = 12
)

// Song is a queue entry for one or more singers.
//
// CreatedAt doubles as the queue ordering key: among queued songs the values are distinct.
type Song struct {
	ID          int64      `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Author      string     `json:"author,omitempty" yaml:"author,omitempty"`
	SingerIDs   []int64    `json:"singer_ids" yaml:"singer_ids"`
	Key         *int       `json:"key,omitempty" yaml:"key,omitempty"`
	YouTubeURL  string     `json:"youtube_url,omitempty" yaml:"youtube_url,omitempty"`
	Status      SongStatus `json:"status" yaml:"status"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// NewSong creates a queued [Song] for the given singers.
func NewSong(title, author string, singerIDs ...int64) *Song {
	return &Song{Title: title, Author: author, SingerIDs: singerIDs, Status: StatusQueued}
}

// Validate trims text fields, deduplicates singers and checks required values.
// A video link, when present, must be an absolute http(s) URL.
func (s *Song) Validate() error {
	s.Title = strings.TrimSpace(s.Title)
	s.Author = strings.TrimSpace(s.Author)
	s.YouTubeURL = strings.TrimSpace(s.YouTubeURL)
	s.SingerIDs = UniqueIDs(s.SingerIDs)

	if s.Title == "" {
		return fmt.Errorf("%w: song title is required", shared.ErrValidation)
	}
	if len(s.SingerIDs) == 0 {
		return fmt.Errorf("%w: song %q needs at least one singer", shared.ErrValidation, s.Title)
	}
	if s.Key != nil && (*s.Key < MinKey || *s.Key > MaxKey) {
		return fmt.Errorf("%w: key %d outside %d..%d", shared.ErrValidation, *s.Key, MinKey, MaxKey)
	}
	if s.YouTubeURL != "" {
		if err := shared.ValidateLink(s.YouTubeURL); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
	}
	if s.Status == "" {
		s.Status = StatusQueued
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown song status %q", shared.ErrValidation, s.Status)
	}
	return nil
}

// HasSinger reports whether id performs this song.
func (s *Song) HasSinger(id int64) bool {
	return slices.Contains(s.SingerIDs, id)
}

// SongPatch lists the editable fields of a [Song]; nil fields keep their current value.
type SongPatch struct {
	Title      *string
	Author     *string
	SingerIDs  []int64
	Key        *int
	ClearKey   bool
	YouTubeURL *string
}

// Apply merges the patch into song.
func (p SongPatch) Apply(song *Song) {
	if p.Title != nil {
		song.Title = *p.Title
	}
	if p.Author != nil {
		song.Author = *p.Author
	}
	if p.SingerIDs != nil {
		song.SingerIDs = slices.Clone(p.SingerIDs)
	}
	switch {
	case p.ClearKey:
		song.Key = nil
	case p.Key != nil:
		k := *p.Key
		song.Key = &k
	}
	if p.YouTubeURL != nil {
		song.YouTubeURL = *p.YouTubeURL
	}
}

// UniqueIDs drops repeated ids, keeping the first occurrence of each.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ParseKey reads a transposition such as "+2", "-1" or "0". An empty string means the original key.
func ParseKey(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	k, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q is not a whole number of semitones", shared.ErrValidation, s)
	}
	if k < MinKey || k > MaxKey {
		return nil, fmt.Errorf("%w: key %d outside %d..%d", shared.ErrValidation, k, MinKey, MaxKey)
	}
	return &k, nil
}

// FormatKey renders a key the way singers write it: "+2", "-1", "0", or "" for the original key.
func FormatKey(k *int) string {
	switch {
	case k == nil:
		return ""
	case *k > 0:
		return "+" + strconv.Itoa(*k)
	default:
		return strconv.Itoa(*k)
	}
}
