// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type.
// Mutating methods run in their own transaction unless the repository was obtained
// from a [Store] bound to one with [Store.InTx].
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// DBTX is the query surface shared by [sql.DB] and [sql.Tx].
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Store hands out repositories over one database handle.
//
// The zero value is not usable; create one with [NewStore].
type Store struct {
	db    *sql.DB
	tx    *sql.Tx
	clock shared.Clock
}

// NewStore creates a [Store] over db. A nil clock reads the system time.
func NewStore(db *sql.DB, clock shared.Clock) *Store {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Store{db: db, clock: clock}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Clock returns the clock used for timestamps and ordering keys.
func (s *Store) Clock() shared.Clock { return s.clock }

// Singers returns the [SingerRepository] bound to this store.
func (s *Store) Singers() *SingerRepository { return &SingerRepository{exec: s.exec()} }

// Songs returns the [SongRepository] bound to this store.
func (s *Store) Songs() *SongRepository { return &SongRepository{exec: s.exec()} }

// Performances returns the [PerformanceRepository] bound to this store.
func (s *Store) Performances() *PerformanceRepository {
	return &PerformanceRepository{exec: s.exec()}
}

// Sessions returns the [SessionRepository] bound to this store.
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{exec: s.exec()} }

func (s *Store) exec() executor {
	return executor{db: s.db, tx: s.tx, clock: s.clock}
}

// InTx runs fn against a copy of the store bound to a single transaction.
//
// Every repository obtained from the copy shares the transaction, which is committed
// when fn returns nil and rolled back otherwise. Calling InTx on a store that is
// already bound reuses the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return shared.StorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, tx: tx, clock: s.clock}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return shared.StorageError("commit transaction", err)
	}
	return nil
}

// Snapshot reads every singer, song and performance inside one transaction.
//
// Songs come back queued first in queue order, followed by archived songs in completion order.
func (s *Store) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := s.InTx(ctx, func(tx *Store) error {
		var err error
		if snap.Singers, err = tx.Singers().List(ctx); err != nil {
			return err
		}

		queued, err := tx.Songs().ListQueued(ctx)
		if err != nil {
			return err
		}
		archived, err := tx.Songs().ListArchived(ctx)
		if err != nil {
			return err
		}
		snap.Songs = append(queued, archived...)

		snap.Performances, err = tx.Performances().List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Reset removes every entity and starts a new session with a fresh identifier.
func (s *Store) Reset(ctx context.Context, name string) (*models.SessionInfo, error) {
	var info *models.SessionInfo
	err := s.InTx(ctx, func(tx *Store) error {
		if err := tx.Performances().Clear(ctx); err != nil {
			return err
		}
		if err := tx.Songs().Clear(ctx); err != nil {
			return err
		}
		if err := tx.Singers().Clear(ctx); err != nil {
			return err
		}
		var err error
		info, err = tx.Sessions().Reset(ctx, name)
		return err
	})
	return info, err
}

// executor is the shared plumbing behind every repository.
type executor struct {
	db    *sql.DB
	tx    *sql.Tx // nil unless bound by [Store.InTx]
	clock shared.Clock
}

func (e executor) conn() DBTX {
	if e.tx != nil {
		return e.tx
	}
	return e.db
}

func (e executor) now() int64 {
	return shared.Millis(e.clock.Now())
}

// write runs fn in the bound transaction, or in a new one that commits when fn succeeds.
func (e executor) write(ctx context.Context, op string, fn func(DBTX) error) error {
	if e.tx != nil {
		return fn(e.tx)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return shared.StorageError(op+": begin", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return shared.StorageError(op+": commit", err)
	}
	return nil
}

// expectRow maps a zero-row statement result to [shared.ErrNotFound].
func expectRow(result sql.Result, what string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return shared.StorageError("failed to get affected rows", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %d", shared.ErrNotFound, what, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
