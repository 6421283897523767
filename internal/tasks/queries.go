package tasks

import (
	"context"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/stats"
)

// Singers lists singers in turn order.
func (s *Session) Singers(ctx context.Context) ([]*models.Singer, error) {
	return s.store.Singers().List(ctx)
}

// Singer returns one singer.
func (s *Session) Singer(ctx context.Context, id int64) (*models.Singer, error) {
	return s.store.Singers().Get(ctx, id)
}

// SingerByName looks a singer up by name, ignoring case.
func (s *Session) SingerByName(ctx context.Context, name string) (*models.Singer, error) {
	return s.store.Singers().GetByName(ctx, name)
}

// QueuedSongs lists the queue, next song first.
func (s *Session) QueuedSongs(ctx context.Context) ([]*models.Song, error) {
	return s.store.Songs().ListQueued(ctx)
}

// ArchivedSongs lists performed songs in completion order.
func (s *Session) ArchivedSongs(ctx context.Context) ([]*models.Song, error) {
	return s.store.Songs().ListArchived(ctx)
}

// Song returns one song in either state.
func (s *Session) Song(ctx context.Context, id int64) (*models.Song, error) {
	return s.store.Songs().Get(ctx, id)
}

// Performances returns the whole log, oldest first.
func (s *Session) Performances(ctx context.Context) ([]*models.Performance, error) {
	return s.store.Performances().List(ctx)
}

// Snapshot reads every entity in one transaction.
func (s *Session) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

// Leaderboard ranks singers by average rating.
func (s *Session) Leaderboard(ctx context.Context) ([]stats.LeaderboardEntry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Leaderboard(snap), nil
}

// SongCounts counts performances per singer id.
func (s *Session) SongCounts(ctx context.Context) (map[int64]int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.SongCounts(snap), nil
}

// SessionStats summarizes the session.
func (s *Session) SessionStats(ctx context.Context) (*stats.SessionStats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	st := stats.Session(snap)
	return &st, nil
}

// SingerStats describes one current singer.
func (s *Session) SingerStats(ctx context.Context, id int64) (*stats.SingerStats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Singer(snap, id)
}

// CheckPerformed reports the first archived song matching title and author.
func (s *Session) CheckPerformed(ctx context.Context, title, author string) (*models.Song, bool, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	song, ok := stats.CheckPerformed(snap, title, author)
	return song, ok, nil
}

// Info describes the session and the applied schema version.
func (s *Session) Info(ctx context.Context) (*models.SessionInfo, error) {
	info, err := s.store.Sessions().Get(ctx)
	if err != nil {
		return nil, err
	}
	if info.SchemaVersion, err = shared.SchemaVersion(s.db); err != nil {
		return nil, err
	}
	return info, nil
}

// Report collects everything an export contains.
func (s *Session) Report(ctx context.Context) (*formatter.Report, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return formatter.NewReport(info, snap, s.store.Clock().Now()), nil
}
