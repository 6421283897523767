package models

import (
	"context"
	"time"
)

// Model is implemented by every persistent entity.
type Model interface {
	Validate() error // Validate checks the caller-supplied fields and normalizes them in place
}

// Repository defines the data access contract shared by every entity kind.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(ctx context.Context, model T) (int64, error) // Create assigns the id and derived fields, then persists
	Get(ctx context.Context, id int64) (T, error)       // Get retrieves a model by its ID
	Delete(ctx context.Context, id int64) error         // Delete removes a model, failing with not found when absent
	List(ctx context.Context) ([]T, error)              // List retrieves every model in the kind's natural order
	Clear(ctx context.Context) error                    // Clear removes every model of the kind
}

// Updater is implemented by repositories whose entities are mutable.
//
// Performances are immutable, so their repository does not implement it.
type Updater[T Model] interface {
	Update(ctx context.Context, model T) error
}

// Snapshot is every entity in the store, read inside one transaction.
type Snapshot struct {
	Singers      []*Singer
	Songs        []*Song
	Performances []*Performance
}

// Queued returns the queued songs in queue order.
func (s *Snapshot) Queued() []*Song {
	var out []*Song
	for _, song := range s.Songs {
		if song.Status == StatusQueued {
			out = append(out, song)
		}
	}
	return out
}

// Archived returns the archived songs in the order they were stored.
func (s *Snapshot) Archived() []*Song {
	var out []*Song
	for _, song := range s.Songs {
		if song.Status == StatusArchived {
			out = append(out, song)
		}
	}
	return out
}

// SingerByID indexes the current singers by id.
func (s *Snapshot) SingerByID() map[int64]*Singer {
	m := make(map[int64]*Singer, len(s.Singers))
	for _, singer := range s.Singers {
		m[singer.ID] = singer
	}
	return m
}

// SessionInfo describes the named, versioned store.
type SessionInfo struct {
	UUID          string    `json:"uuid" yaml:"uuid"`
	Name          string    `json:"name" yaml:"name"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	SchemaVersion int       `json:"schema_version" yaml:"schema_version"`
}
