package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/karaoke/internal/shared"
)

// Ratings run from 0 to MaxRating in RatingStep increments.
const (
	MaxRating  = 5.0
	RatingStep = 0.5
)

// Performance records one singer finishing one song.
//
// SongTitle and SingerName are copied at creation and never re-derived.
type Performance struct {
	ID          int64     `json:"id" yaml:"id"`
	SongID      *int64    `json:"song_id,omitempty" yaml:"song_id,omitempty"`
	SingerID    int64     `json:"singer_id" yaml:"singer_id"`
	SongTitle   string    `json:"song_title" yaml:"song_title"`
	SingerName  string    `json:"singer_name" yaml:"singer_name"`
	Rating      *float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	PerformedAt time.Time `json:"performed_at" yaml:"performed_at"`
}

// Rated reports whether the performance carries a rating.
func (p *Performance) Rated() bool {
	return p.Rating != nil
}

// Validate trims the snapshots and checks the rating.
func (p *Performance) Validate() error {
	p.SongTitle = strings.TrimSpace(p.SongTitle)
	p.SingerName = strings.TrimSpace(p.SingerName)

	if p.SongTitle == "" {
		return fmt.Errorf("%w: performance song title is required", shared.ErrValidation)
	}
	if p.SingerName == "" {
		return fmt.Errorf("%w: performance singer name is required", shared.ErrValidation)
	}
	return ValidateRating(p.Rating)
}

// ValidateRating accepts nil or a value in [0, 5] in 0.5 increments.
func ValidateRating(r *float64) error {
	if r == nil {
		return nil
	}
	v := *r
	if math.IsNaN(v) || v < 0 || v > MaxRating {
		return fmt.Errorf("%w: rating %v outside 0..%v", shared.ErrValidation, v, MaxRating)
	}
	if v*2 != math.Trunc(v*2) {
		return fmt.Errorf("%w: rating %v is not a multiple of 0.5", shared.ErrValidation, v)
	}
	return nil
}

// ParseRating reads a rating from user input. An empty string means unrated.
func ParseRating(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: rating %q is not a number", shared.ErrValidation, s)
	}
	if err := ValidateRating(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
