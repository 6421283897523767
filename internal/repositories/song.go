package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

var (
	_ models.Repository[*models.Song] = (*SongRepository)(nil)
	_ models.Updater[*models.Song]    = (*SongRepository)(nil)
)

const songColumns = `id, title, author, song_key, youtube_url, status, created_at, completed_at`

// SongRepository implements [models.Repository] for [models.Song] persistence.
//
// Singer membership lives in the song_singers junction table, ordered by position.
// created_at is the queue ordering key and stays distinct among queued songs:
// appends take max(now, last+1) and [SongRepository.Reorder] renumbers from a fresh base.
type SongRepository struct {
	exec executor
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB, clock shared.Clock) *SongRepository {
	return NewStore(db, clock).Songs()
}

// Create appends a queued song to the end of the queue and returns its id.
func (r *SongRepository) Create(ctx context.Context, song *models.Song) (int64, error) {
	song.Status = models.StatusQueued
	song.CompletedAt = nil
	if err := song.Validate(); err != nil {
		return 0, err
	}

	err := r.exec.write(ctx, "create song", func(db DBTX) error {
		last, err := lastQueuedKey(ctx, db)
		if err != nil {
			return err
		}
		createdAt := max(r.exec.now(), last+1)

		result, err := db.ExecContext(ctx, `
			INSERT INTO songs (title, author, song_key, youtube_url, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			song.Title,
			song.Author,
			nullableInt(song.Key),
			song.YouTubeURL,
			string(song.Status),
			createdAt,
		)
		if err != nil {
			return shared.StorageError("failed to insert song", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return shared.StorageError("failed to read song id", err)
		}

		if err := replaceSingers(ctx, db, id, song.SingerIDs); err != nil {
			return err
		}

		song.ID = id
		song.CreatedAt = shared.FromMillis(createdAt)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return song.ID, nil
}

// Get retrieves a song by ID with its singers
func (r *SongRepository) Get(ctx context.Context, id int64) (*models.Song, error) {
	db := r.exec.conn()
	song, err := scanSong(db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: song %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := attachSingers(ctx, db, []*models.Song{song}); err != nil {
		return nil, err
	}
	return song, nil
}

// Update writes the editable fields of a song: title, author, key, link and singers.
//
// Status and ordering are owned by [SongRepository.Archive] and [SongRepository.Reorder].
func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}

	return r.exec.write(ctx, "update song", func(db DBTX) error {
		result, err := db.ExecContext(ctx, `
			UPDATE songs
			SET title = ?, author = ?, song_key = ?, youtube_url = ?
			WHERE id = ?`,
			song.Title,
			song.Author,
			nullableInt(song.Key),
			song.YouTubeURL,
			song.ID,
		)
		if err != nil {
			return shared.StorageError("failed to update song", err)
		}
		if err := expectRow(result, "song", song.ID); err != nil {
			return err
		}
		return replaceSingers(ctx, db, song.ID, song.SingerIDs)
	})
}

// Delete removes a song in either state.
func (r *SongRepository) Delete(ctx context.Context, id int64) error {
	return r.exec.write(ctx, "delete song", func(db DBTX) error {
		if _, err := db.ExecContext(ctx, `DELETE FROM song_singers WHERE song_id = ?`, id); err != nil {
			return shared.StorageError("failed to delete song singers", err)
		}
		result, err := db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
		if err != nil {
			return shared.StorageError("failed to delete song", err)
		}
		return expectRow(result, "song", id)
	})
}

// List retrieves every song, queued or archived, by id
func (r *SongRepository) List(ctx context.Context) ([]*models.Song, error) {
	return r.list(ctx, `SELECT `+songColumns+` FROM songs ORDER BY id ASC`)
}

// ListQueued retrieves the queue in play order.
func (r *SongRepository) ListQueued(ctx context.Context) ([]*models.Song, error) {
	return r.list(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE status = ?
		ORDER BY created_at ASC, id ASC`, string(models.StatusQueued))
}

// ListArchived retrieves archived songs in the order they were completed.
func (r *SongRepository) ListArchived(ctx context.Context) ([]*models.Song, error) {
	return r.list(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE status = ?
		ORDER BY completed_at ASC, id ASC`, string(models.StatusArchived))
}

// Clear removes every song.
func (r *SongRepository) Clear(ctx context.Context) error {
	return r.exec.write(ctx, "clear songs", func(db DBTX) error {
		if _, err := db.ExecContext(ctx, `DELETE FROM song_singers`); err != nil {
			return shared.StorageError("failed to clear song singers", err)
		}
		if _, err := db.ExecContext(ctx, `DELETE FROM songs`); err != nil {
			return shared.StorageError("failed to clear songs", err)
		}
		return nil
	})
}

// Archive marks a queued song as performed.
//
// Archiving is terminal and not idempotent: a missing song fails with [shared.ErrNotFound]
// and an archived one with [shared.ErrAlreadyArchived].
func (r *SongRepository) Archive(ctx context.Context, id int64) error {
	return r.exec.write(ctx, "archive song", func(db DBTX) error {
		if err := requireQueued(ctx, db, id); err != nil {
			return err
		}

		result, err := db.ExecContext(ctx,
			`UPDATE songs SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
			string(models.StatusArchived), r.exec.now(), id, string(models.StatusQueued),
		)
		if err != nil {
			return shared.StorageError("failed to archive song", err)
		}
		return expectRow(result, "song", id)
	})
}

// Reorder moves a queued song to index among the queued songs and renumbers the whole queue.
//
// The index is clamped to the queue bounds. Every queued song receives a fresh key
// base+i, where base is later than both the clock and every existing key, so the
// stored order is exactly the requested one.
func (r *SongRepository) Reorder(ctx context.Context, id int64, index int) error {
	return r.exec.write(ctx, "reorder song", func(db DBTX) error {
		if err := requireQueued(ctx, db, id); err != nil {
			return err
		}

		rows, err := db.QueryContext(ctx,
			`SELECT id, created_at FROM songs WHERE status = ? ORDER BY created_at ASC, id ASC`,
			string(models.StatusQueued),
		)
		if err != nil {
			return shared.StorageError("failed to query queue", err)
		}

		var (
			order []int64
			last  int64
		)
		for rows.Next() {
			var songID, createdAt int64
			if err := rows.Scan(&songID, &createdAt); err != nil {
				rows.Close()
				return shared.StorageError("failed to scan queue", err)
			}
			order = append(order, songID)
			last = max(last, createdAt)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return shared.StorageError("row iteration error", err)
		}
		rows.Close()

		from := slices.Index(order, id)
		index = min(max(index, 0), len(order)-1)
		order = slices.Delete(order, from, from+1)
		order = slices.Insert(order, index, id)

		base := max(r.exec.now(), last+1)
		for i, songID := range order {
			if _, err := db.ExecContext(ctx, `UPDATE songs SET created_at = ? WHERE id = ?`, base+int64(i), songID); err != nil {
				return shared.StorageError("failed to renumber queue", err)
			}
		}
		return nil
	})
}

func (r *SongRepository) list(ctx context.Context, query string, args ...any) ([]*models.Song, error) {
	db := r.exec.conn()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, shared.StorageError("failed to query songs", err)
	}

	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, shared.StorageError("row iteration error", err)
	}
	rows.Close()

	if err := attachSingers(ctx, db, songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// requireQueued fails unless song id exists and is still queued.
func requireQueued(ctx context.Context, db DBTX, id int64) error {
	var status string
	err := db.QueryRowContext(ctx, `SELECT status FROM songs WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: song %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return shared.StorageError("failed to read song status", err)
	}
	if models.SongStatus(status) != models.StatusQueued {
		return fmt.Errorf("%w: song %d", shared.ErrAlreadyArchived, id)
	}
	return nil
}

func lastQueuedKey(ctx context.Context, db DBTX) (int64, error) {
	var last int64
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(created_at), 0) FROM songs WHERE status = ?`, string(models.StatusQueued),
	).Scan(&last)
	if err != nil {
		return 0, shared.StorageError("failed to read queue order", err)
	}
	return last, nil
}

func replaceSingers(ctx context.Context, db DBTX, songID int64, singerIDs []int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM song_singers WHERE song_id = ?`, songID); err != nil {
		return shared.StorageError("failed to clear song singers", err)
	}
	for pos, singerID := range singerIDs {
		_, err := db.ExecContext(ctx,
			`INSERT INTO song_singers (song_id, singer_id, position) VALUES (?, ?, ?)`,
			songID, singerID, pos,
		)
		if err != nil {
			return shared.StorageError("failed to insert song singer", err)
		}
	}
	return nil
}

// attachSingers fills SingerIDs for songs from the junction table.
func attachSingers(ctx context.Context, db DBTX, songs []*models.Song) error {
	if len(songs) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Song, len(songs))
	for _, song := range songs {
		song.SingerIDs = []int64{}
		byID[song.ID] = song
	}

	query := `SELECT song_id, singer_id FROM song_singers ORDER BY song_id, position`
	var args []any
	if len(songs) == 1 {
		query = `SELECT song_id, singer_id FROM song_singers WHERE song_id = ? ORDER BY position`
		args = append(args, songs[0].ID)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return shared.StorageError("failed to query song singers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var songID, singerID int64
		if err := rows.Scan(&songID, &singerID); err != nil {
			return shared.StorageError("failed to scan song singer", err)
		}
		if song, ok := byID[songID]; ok {
			song.SingerIDs = append(song.SingerIDs, singerID)
		}
	}
	if err := rows.Err(); err != nil {
		return shared.StorageError("row iteration error", err)
	}
	return nil
}

func scanSong(sc scanner) (*models.Song, error) {
	var (
		song        models.Song
		status      string
		key         sql.NullInt64
		createdAt   int64
		completedAt sql.NullInt64
	)

	err := sc.Scan(&song.ID, &song.Title, &song.Author, &key, &song.YouTubeURL, &status, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, shared.StorageError("failed to scan song", err)
	}

	song.Status = models.SongStatus(status)
	if key.Valid {
		k := int(key.Int64)
		song.Key = &k
	}
	song.CreatedAt = shared.FromMillis(createdAt)
	if completedAt.Valid {
		t := shared.FromMillis(completedAt.Int64)
		song.CompletedAt = &t
	}
	return &song, nil
}
