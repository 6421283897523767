package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/karaoke/internal/shared"
)

// Singer is a participant in the session.
type Singer struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	SortOrder int64     `json:"sort_order" yaml:"sort_order"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewSinger creates a [Singer] with the given name.
// The store assigns the id, sort order and creation time.
func NewSinger(name string) *Singer {
	return &Singer{Name: name}
}

// Validate trims the name and rejects empty names.
func (s *Singer) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return fmt.Errorf("%w: singer name is required", shared.ErrValidation)
	}
	return nil
}
