package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

var (
	_ models.Repository[*models.Singer] = (*SingerRepository)(nil)
	_ models.Updater[*models.Singer]    = (*SingerRepository)(nil)
)

const singerColumns = `id, name, sort_order, created_at`

// SingerRepository implements [models.Repository] for [models.Singer] persistence.
//
// Names are unique without regard to case. Sort orders are unique and only ever grow:
// new singers and rotated singers are placed after the current maximum.
type SingerRepository struct {
	exec executor
}

// NewSingerRepository creates a new [SingerRepository] with the given database connection
func NewSingerRepository(db *sql.DB, clock shared.Clock) *SingerRepository {
	return NewStore(db, clock).Singers()
}

// Create inserts a singer at the back of the turn order and returns its id.
func (r *SingerRepository) Create(ctx context.Context, singer *models.Singer) (int64, error) {
	if err := singer.Validate(); err != nil {
		return 0, err
	}

	err := r.exec.write(ctx, "create singer", func(db DBTX) error {
		var next int64
		if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM singers`).Scan(&next); err != nil {
			return shared.StorageError("failed to read sort order", err)
		}

		now := r.exec.now()
		result, err := db.ExecContext(ctx,
			`INSERT INTO singers (name, sort_order, created_at) VALUES (?, ?, ?)`,
			singer.Name, next, now,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: singer %q already exists", shared.ErrValidation, singer.Name)
		}
		if err != nil {
			return shared.StorageError("failed to insert singer", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return shared.StorageError("failed to read singer id", err)
		}

		singer.ID = id
		singer.SortOrder = next
		singer.CreatedAt = shared.FromMillis(now)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return singer.ID, nil
}

// Get retrieves a singer by ID
func (r *SingerRepository) Get(ctx context.Context, id int64) (*models.Singer, error) {
	query := `SELECT ` + singerColumns + ` FROM singers WHERE id = ?`
	singer, err := scanSinger(r.exec.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: singer %d", shared.ErrNotFound, id)
	}
	return singer, err
}

// GetByName retrieves a singer by name, ignoring case and surrounding whitespace.
func (r *SingerRepository) GetByName(ctx context.Context, name string) (*models.Singer, error) {
	probe := models.NewSinger(name)
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT ` + singerColumns + ` FROM singers WHERE name = ?`
	singer, err := scanSinger(r.exec.conn().QueryRowContext(ctx, query, probe.Name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: singer %q", shared.ErrNotFound, probe.Name)
	}
	return singer, err
}

// Update renames an existing singer. The sort order is only changed through [SingerRepository.Rotate].
func (r *SingerRepository) Update(ctx context.Context, singer *models.Singer) error {
	if err := singer.Validate(); err != nil {
		return err
	}

	return r.exec.write(ctx, "update singer", func(db DBTX) error {
		result, err := db.ExecContext(ctx, `UPDATE singers SET name = ? WHERE id = ?`, singer.Name, singer.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: singer %q already exists", shared.ErrValidation, singer.Name)
		}
		if err != nil {
			return shared.StorageError("failed to update singer", err)
		}
		return expectRow(result, "singer", singer.ID)
	})
}

// Delete removes a singer. Songs and performances that reference it are left untouched.
func (r *SingerRepository) Delete(ctx context.Context, id int64) error {
	return r.exec.write(ctx, "delete singer", func(db DBTX) error {
		result, err := db.ExecContext(ctx, `DELETE FROM singers WHERE id = ?`, id)
		if err != nil {
			return shared.StorageError("failed to delete singer", err)
		}
		return expectRow(result, "singer", id)
	})
}

// List retrieves all singers in turn order
func (r *SingerRepository) List(ctx context.Context) ([]*models.Singer, error) {
	rows, err := r.exec.conn().QueryContext(ctx, `SELECT `+singerColumns+` FROM singers ORDER BY sort_order ASC`)
	if err != nil {
		return nil, shared.StorageError("failed to query singers", err)
	}
	defer rows.Close()

	var singers []*models.Singer
	for rows.Next() {
		singer, err := scanSinger(rows)
		if err != nil {
			return nil, err
		}
		singers = append(singers, singer)
	}

	if err := rows.Err(); err != nil {
		return nil, shared.StorageError("row iteration error", err)
	}

	return singers, nil
}

// Clear removes every singer.
func (r *SingerRepository) Clear(ctx context.Context) error {
	return r.exec.write(ctx, "clear singers", func(db DBTX) error {
		if _, err := db.ExecContext(ctx, `DELETE FROM singers`); err != nil {
			return shared.StorageError("failed to clear singers", err)
		}
		return nil
	})
}

// Rotate moves the given singers to the back of the turn order, keeping their relative order.
//
// Repeated ids count once, at their first position. Ids that do not exist are skipped.
// Singers not listed keep their sort order.
func (r *SingerRepository) Rotate(ctx context.Context, ids []int64) error {
	ids = models.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	return r.exec.write(ctx, "rotate singers", func(db DBTX) error {
		var last int64
		if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order), 0) FROM singers`).Scan(&last); err != nil {
			return shared.StorageError("failed to read sort order", err)
		}

		next := last + 1
		for _, id := range ids {
			result, err := db.ExecContext(ctx, `UPDATE singers SET sort_order = ? WHERE id = ?`, next, id)
			if err != nil {
				return shared.StorageError("failed to rotate singer", err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return shared.StorageError("failed to get affected rows", err)
			}
			if n > 0 {
				next++
			}
		}
		return nil
	})
}

func scanSinger(sc scanner) (*models.Singer, error) {
	var (
		singer    models.Singer
		createdAt int64
	)

	err := sc.Scan(&singer.ID, &singer.Name, &singer.SortOrder, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, shared.StorageError("failed to scan singer", err)
	}

	singer.CreatedAt = shared.FromMillis(createdAt)
	return &singer, nil
}
