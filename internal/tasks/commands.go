package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/desertthunder/karaoke/internal/events"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/queue"
	"github.com/desertthunder/karaoke/internal/repositories"
	"github.com/desertthunder/karaoke/internal/shared"
)

// SongInput holds the caller-supplied fields of a new song.
type SongInput struct {
	Title      string
	Author     string
	SingerIDs  []int64
	Key        *int
	YouTubeURL string
}

// PerformanceInput holds the caller-supplied fields of a new log entry.
//
// The singer name is always copied from the current singer. An empty title is
// taken from the song when SongID is set.
type PerformanceInput struct {
	SongID    *int64
	SingerID  int64
	SongTitle string
	Rating    *float64
}

// CompleteResult describes a completed song.
type CompleteResult struct {
	Song         *models.Song
	Performances []*models.Performance
	Rotated      []int64
}

// AddSinger creates a singer at the back of the turn order.
func (s *Session) AddSinger(ctx context.Context, name string) (*models.Singer, error) {
	singer := models.NewSinger(name)
	err := s.command(ctx, "add singer", []events.Kind{events.Singers}, func(tx *repositories.Store) error {
		_, err := tx.Singers().Create(ctx, singer)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("singer added", "id", singer.ID, "name", singer.Name)
	return singer, nil
}

// RenameSinger changes a singer's name. Logged performances keep the old name.
func (s *Session) RenameSinger(ctx context.Context, id int64, name string) (*models.Singer, error) {
	var singer *models.Singer
	err := s.command(ctx, "rename singer", []events.Kind{events.Singers}, func(tx *repositories.Store) error {
		var err error
		if singer, err = tx.Singers().Get(ctx, id); err != nil {
			return err
		}
		singer.Name = name
		return tx.Singers().Update(ctx, singer)
	})
	if err != nil {
		return nil, err
	}
	return singer, nil
}

// DeleteSinger removes a singer. Their songs and performances stay as they are.
func (s *Session) DeleteSinger(ctx context.Context, id int64) error {
	return s.command(ctx, "delete singer", []events.Kind{events.Singers}, func(tx *repositories.Store) error {
		return tx.Singers().Delete(ctx, id)
	})
}

// ClearSingers removes every singer.
func (s *Session) ClearSingers(ctx context.Context) error {
	return s.command(ctx, "clear singers", []events.Kind{events.Singers}, func(tx *repositories.Store) error {
		return tx.Singers().Clear(ctx)
	})
}

// RotateSingers sends the given singers to the back of the turn order, in the given order.
func (s *Session) RotateSingers(ctx context.Context, ids []int64) error {
	return s.command(ctx, "rotate singers", []events.Kind{events.Singers}, func(tx *repositories.Store) error {
		return tx.Singers().Rotate(ctx, ids)
	})
}

// AddSong queues a new song. In [queue.FairPlay] mode the song is placed ahead of
// the first queued song whose singers have had strictly more turns.
func (s *Session) AddSong(ctx context.Context, in SongInput, mode queue.Mode) (*models.Song, error) {
	song := models.NewSong(in.Title, in.Author, in.SingerIDs...)
	song.Key = in.Key
	song.YouTubeURL = in.YouTubeURL
	if err := song.Validate(); err != nil {
		return nil, err
	}

	var position int
	err := s.command(ctx, "add song", []events.Kind{events.Songs}, func(tx *repositories.Store) error {
		if err := requireSingers(ctx, tx, song.SingerIDs); err != nil {
			return err
		}

		queued, err := tx.Songs().ListQueued(ctx)
		if err != nil {
			return err
		}
		var performances []*models.Performance
		if mode == queue.FairPlay {
			if performances, err = tx.Performances().List(ctx); err != nil {
				return err
			}
		}
		position = queue.Position(mode, queued, performances, song.SingerIDs)

		if _, err := tx.Songs().Create(ctx, song); err != nil {
			return err
		}
		if position < len(queued) {
			return tx.Songs().Reorder(ctx, song.ID, position)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("song queued", "id", song.ID, "title", song.Title, "mode", mode, "position", position+1)
	return s.store.Songs().Get(ctx, song.ID)
}

// UpdateSong applies patch to a song in either state.
func (s *Session) UpdateSong(ctx context.Context, id int64, patch models.SongPatch) (*models.Song, error) {
	var song *models.Song
	err := s.command(ctx, "update song", []events.Kind{events.Songs}, func(tx *repositories.Store) error {
		var err error
		if song, err = tx.Songs().Get(ctx, id); err != nil {
			return err
		}
		patch.Apply(song)
		if patch.SingerIDs != nil {
			if err := requireSingers(ctx, tx, song.SingerIDs); err != nil {
				return err
			}
		}
		return tx.Songs().Update(ctx, song)
	})
	if err != nil {
		return nil, err
	}
	return song, nil
}

// DeleteSong removes a song in either state.
func (s *Session) DeleteSong(ctx context.Context, id int64) error {
	return s.command(ctx, "delete song", []events.Kind{events.Songs}, func(tx *repositories.Store) error {
		return tx.Songs().Delete(ctx, id)
	})
}

// ClearSongs removes every song, queued and archived.
func (s *Session) ClearSongs(ctx context.Context) error {
	return s.command(ctx, "clear songs", []events.Kind{events.Songs}, func(tx *repositories.Store) error {
		return tx.Songs().Clear(ctx)
	})
}

// ReorderSong moves a queued song to the 0-based index, clamped to the queue.
func (s *Session) ReorderSong(ctx context.Context, id int64, index int) error {
	return s.command(ctx, "reorder song", []events.Kind{events.Songs}, func(tx *repositories.Store) error {
		return tx.Songs().Reorder(ctx, id, index)
	})
}

// MoveSong moves a queued song by delta places; negative moves it up.
func (s *Session) MoveSong(ctx context.Context, id int64, delta int) error {
	return s.command(ctx, "move song", []events.Kind{events.Songs}, func(tx *repositories.Store) error {
		queued, err := tx.Songs().ListQueued(ctx)
		if err != nil {
			return err
		}
		from := slices.IndexFunc(queued, func(song *models.Song) bool { return song.ID == id })
		if from < 0 {
			// Reorder reports whether the song is missing or archived.
			return tx.Songs().Reorder(ctx, id, 0)
		}
		return tx.Songs().Reorder(ctx, id, from+delta)
	})
}

// ArchiveSong marks a queued song as performed without logging anything.
func (s *Session) ArchiveSong(ctx context.Context, id int64) error {
	return s.command(ctx, "archive song", []events.Kind{events.Songs}, func(tx *repositories.Store) error {
		return tx.Songs().Archive(ctx, id)
	})
}

// AddPerformance appends one entry to the performance log.
func (s *Session) AddPerformance(ctx context.Context, in PerformanceInput) (*models.Performance, error) {
	created, err := s.AddPerformances(ctx, []PerformanceInput{in})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// AddPerformances appends several entries in one transaction.
func (s *Session) AddPerformances(ctx context.Context, in []PerformanceInput) ([]*models.Performance, error) {
	var created []*models.Performance
	err := s.command(ctx, "add performances", []events.Kind{events.Performances}, func(tx *repositories.Store) error {
		created = created[:0]
		for _, input := range in {
			p, err := newPerformance(ctx, tx, input)
			if err != nil {
				return err
			}
			if _, err := tx.Performances().Create(ctx, p); err != nil {
				return err
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ClearPerformances empties the performance log.
func (s *Session) ClearPerformances(ctx context.Context) error {
	return s.command(ctx, "clear performances", []events.Kind{events.Performances}, func(tx *repositories.Store) error {
		return tx.Performances().Clear(ctx)
	})
}

// CompleteSong archives a queued song, logs one performance per singer that still
// exists and, when rotate is set, sends those singers to the back of the turn order.
//
// All three steps share one transaction. A nil or zero rating is logged as unrated.
func (s *Session) CompleteSong(ctx context.Context, songID int64, rating *float64, rotate bool) (*CompleteResult, error) {
	if rating != nil && *rating == 0 {
		rating = nil
	}
	if err := models.ValidateRating(rating); err != nil {
		return nil, err
	}

	result := &CompleteResult{}
	kinds := []events.Kind{events.Songs, events.Performances}
	if rotate {
		kinds = append(kinds, events.Singers)
	}

	err := s.command(ctx, "complete song", kinds, func(tx *repositories.Store) error {
		result.Performances, result.Rotated = nil, nil

		if err := tx.Songs().Archive(ctx, songID); err != nil {
			return err
		}
		song, err := tx.Songs().Get(ctx, songID)
		if err != nil {
			return err
		}
		result.Song = song

		for _, singerID := range song.SingerIDs {
			singer, err := tx.Singers().Get(ctx, singerID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					continue
				}
				return err
			}

			p := &models.Performance{
				SongID:      &song.ID,
				SingerID:    singer.ID,
				SongTitle:   song.Title,
				SingerName:  singer.Name,
				Rating:      rating,
				PerformedAt: *song.CompletedAt,
			}
			if _, err := tx.Performances().Create(ctx, p); err != nil {
				return err
			}
			result.Performances = append(result.Performances, p)
			result.Rotated = append(result.Rotated, singer.ID)
		}

		if !rotate {
			result.Rotated = nil
			return nil
		}
		return tx.Singers().Rotate(ctx, result.Rotated)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("song completed",
		"id", songID,
		"title", result.Song.Title,
		"performances", len(result.Performances),
		"rotated", len(result.Rotated),
	)
	return result, nil
}

// Reset removes every singer, song and performance and starts a new session.
// An empty name keeps the current session name.
func (s *Session) Reset(ctx context.Context, name string) (*models.SessionInfo, error) {
	var info *models.SessionInfo
	err := s.command(ctx, "reset session", events.All, func(tx *repositories.Store) error {
		if name == "" {
			current, err := tx.Sessions().Get(ctx)
			if err != nil {
				return err
			}
			name = current.Name
		}
		var err error
		info, err = tx.Reset(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("session reset", "name", info.Name, "uuid", info.UUID)
	return info, nil
}

// RenameSession changes the session name and keeps its identifier.
func (s *Session) RenameSession(ctx context.Context, name string) error {
	return s.command(ctx, "rename session", nil, func(tx *repositories.Store) error {
		return tx.Sessions().Rename(ctx, name)
	})
}

// requireSingers fails with [shared.ErrValidation] when any id does not name a current singer.
func requireSingers(ctx context.Context, tx *repositories.Store, ids []int64) error {
	for _, id := range ids {
		if _, err := tx.Singers().Get(ctx, id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return fmt.Errorf("%w: singer %d does not exist", shared.ErrValidation, id)
			}
			return err
		}
	}
	return nil
}

func newPerformance(ctx context.Context, tx *repositories.Store, in PerformanceInput) (*models.Performance, error) {
	singer, err := tx.Singers().Get(ctx, in.SingerID)
	if err != nil {
		return nil, err
	}

	title := in.SongTitle
	if in.SongID != nil && title == "" {
		song, err := tx.Songs().Get(ctx, *in.SongID)
		if err != nil {
			return nil, err
		}
		title = song.Title
	}

	return &models.Performance{
		SongID:     in.SongID,
		SingerID:   singer.ID,
		SongTitle:  title,
		SingerName: singer.Name,
		Rating:     in.Rating,
	}, nil
}
