package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

var _ models.Repository[*models.Performance] = (*PerformanceRepository)(nil)

const performanceColumns = `id, song_id, singer_id, song_title, singer_name, rating, performed_at`

// PerformanceRepository implements [models.Repository] for the performance log.
//
// Records are immutable once written: there is no Update. They carry no foreign keys,
// so history survives the deletion of the song or singer it mentions.
type PerformanceRepository struct {
	exec executor
}

// NewPerformanceRepository creates a new [PerformanceRepository] with the given database connection
func NewPerformanceRepository(db *sql.DB, clock shared.Clock) *PerformanceRepository {
	return NewStore(db, clock).Performances()
}

// Create appends a record to the log and returns its id. A zero PerformedAt is stamped with the current time.
func (r *PerformanceRepository) Create(ctx context.Context, p *models.Performance) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.PerformedAt.IsZero() {
		p.PerformedAt = r.exec.clock.Now()
	}

	err := r.exec.write(ctx, "create performance", func(db DBTX) error {
		result, err := db.ExecContext(ctx, `
			INSERT INTO performances (song_id, singer_id, song_title, singer_name, rating, performed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			nullableInt64(p.SongID),
			p.SingerID,
			p.SongTitle,
			p.SingerName,
			nullableFloat(p.Rating),
			shared.Millis(p.PerformedAt),
		)
		if err != nil {
			return shared.StorageError("failed to insert performance", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return shared.StorageError("failed to read performance id", err)
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// Get retrieves a performance by ID
func (r *PerformanceRepository) Get(ctx context.Context, id int64) (*models.Performance, error) {
	query := `SELECT ` + performanceColumns + ` FROM performances WHERE id = ?`
	p, err := scanPerformance(r.exec.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: performance %d", shared.ErrNotFound, id)
	}
	return p, err
}

// Delete removes a single record.
func (r *PerformanceRepository) Delete(ctx context.Context, id int64) error {
	return r.exec.write(ctx, "delete performance", func(db DBTX) error {
		result, err := db.ExecContext(ctx, `DELETE FROM performances WHERE id = ?`, id)
		if err != nil {
			return shared.StorageError("failed to delete performance", err)
		}
		return expectRow(result, "performance", id)
	})
}

// List retrieves the whole log in insertion order. Callers sort as needed.
func (r *PerformanceRepository) List(ctx context.Context) ([]*models.Performance, error) {
	return r.list(ctx, `SELECT `+performanceColumns+` FROM performances ORDER BY id ASC`)
}

// ListBySinger retrieves the records of one singer in insertion order.
func (r *PerformanceRepository) ListBySinger(ctx context.Context, singerID int64) ([]*models.Performance, error) {
	return r.list(ctx, `SELECT `+performanceColumns+` FROM performances WHERE singer_id = ? ORDER BY id ASC`, singerID)
}

// ListBySong retrieves the records written when a song was completed.
func (r *PerformanceRepository) ListBySong(ctx context.Context, songID int64) ([]*models.Performance, error) {
	return r.list(ctx, `SELECT `+performanceColumns+` FROM performances WHERE song_id = ? ORDER BY id ASC`, songID)
}

// Clear removes every record.
func (r *PerformanceRepository) Clear(ctx context.Context) error {
	return r.exec.write(ctx, "clear performances", func(db DBTX) error {
		if _, err := db.ExecContext(ctx, `DELETE FROM performances`); err != nil {
			return shared.StorageError("failed to clear performances", err)
		}
		return nil
	})
}

func (r *PerformanceRepository) list(ctx context.Context, query string, args ...any) ([]*models.Performance, error) {
	rows, err := r.exec.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, shared.StorageError("failed to query performances", err)
	}
	defer rows.Close()

	var performances []*models.Performance
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, err
		}
		performances = append(performances, p)
	}

	if err := rows.Err(); err != nil {
		return nil, shared.StorageError("row iteration error", err)
	}
	return performances, nil
}

func scanPerformance(sc scanner) (*models.Performance, error) {
	var (
		p           models.Performance
		songID      sql.NullInt64
		rating      sql.NullFloat64
		performedAt int64
	)

	err := sc.Scan(&p.ID, &songID, &p.SingerID, &p.SongTitle, &p.SingerName, &rating, &performedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, shared.StorageError("failed to scan performance", err)
	}

	if songID.Valid {
		id := songID.Int64
		p.SongID = &id
	}
	if rating.Valid {
		v := rating.Float64
		p.Rating = &v
	}
	p.PerformedAt = shared.FromMillis(performedAt)
	return &p, nil
}
