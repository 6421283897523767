package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

// DefaultSessionName names a session when the configuration leaves it blank.
const DefaultSessionName = "Karaoke Night"

// SessionRepository persists the single row describing the current session.
type SessionRepository struct {
	exec executor
}

// Ensure returns the current session, creating it with name when the store is new.
func (r *SessionRepository) Ensure(ctx context.Context, name string) (*models.SessionInfo, error) {
	var info *models.SessionInfo
	err := r.exec.write(ctx, "ensure session", func(db DBTX) error {
		var err error
		info, err = getSession(ctx, db)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		info, err = r.put(ctx, db, name)
		return err
	})
	return info, err
}

// Get retrieves the current session.
func (r *SessionRepository) Get(ctx context.Context) (*models.SessionInfo, error) {
	return getSession(ctx, r.exec.conn())
}

// Reset starts a new session: a fresh identifier, start time and name.
func (r *SessionRepository) Reset(ctx context.Context, name string) (*models.SessionInfo, error) {
	var info *models.SessionInfo
	err := r.exec.write(ctx, "reset session", func(db DBTX) error {
		var err error
		info, err = r.put(ctx, db, name)
		return err
	})
	return info, err
}

// Rename changes the session name and keeps its identifier.
func (r *SessionRepository) Rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: session name is required", shared.ErrValidation)
	}
	return r.exec.write(ctx, "rename session", func(db DBTX) error {
		result, err := db.ExecContext(ctx, `UPDATE sessions SET name = ? WHERE id = 1`, name)
		if err != nil {
			return shared.StorageError("failed to rename session", err)
		}
		return expectRow(result, "session", 1)
	})
}

func (r *SessionRepository) put(ctx context.Context, db DBTX, name string) (*models.SessionInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSessionName
	}

	info := &models.SessionInfo{
		UUID:      shared.GenerateID(),
		Name:      name,
		StartedAt: r.exec.clock.Now(),
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, uuid, name, started_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET uuid = excluded.uuid, name = excluded.name, started_at = excluded.started_at`,
		info.UUID, info.Name, shared.Millis(info.StartedAt),
	)
	if err != nil {
		return nil, shared.StorageError("failed to write session", err)
	}
	return info, nil
}

func getSession(ctx context.Context, db DBTX) (*models.SessionInfo, error) {
	var (
		info      models.SessionInfo
		startedAt int64
	)
	err := db.QueryRowContext(ctx, `SELECT uuid, name, started_at FROM sessions WHERE id = 1`).
		Scan(&info.UUID, &info.Name, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session", shared.ErrNotFound)
	}
	if err != nil {
		return nil, shared.StorageError("failed to query session", err)
	}
	info.StartedAt = shared.FromMillis(startedAt)
	return &info, nil
}
