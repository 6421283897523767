package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/karaoke/internal/events"
	"github.com/desertthunder/karaoke/internal/queue"
	"github.com/desertthunder/karaoke/internal/repositories"
	"github.com/desertthunder/karaoke/internal/shared"
)

// Options configures [Open]. Every field is optional.
type Options struct {
	Config *shared.Config // Defaults to [shared.DefaultConfig]
	Logger *log.Logger    // Defaults to a logger that discards output
	Clock  shared.Clock   // Defaults to the system clock
	Bus    *events.Bus    // Defaults to a new bus
}

// Session is one karaoke event backed by a SQLite store.
//
// Commands are serialized: each runs in its own transaction and publishes the
// changed kinds on the bus after it commits. Queries read without taking the lock.
type Session struct {
	mu     sync.Mutex
	db     *sql.DB
	store  *repositories.Store
	bus    *events.Bus
	logger *log.Logger
	cfg    *shared.Config

	fairPlay   atomic.Bool
	autoRotate atomic.Bool
}

// Open opens the database named by the configuration, applies pending migrations
// and makes sure a session row exists.
func Open(ctx context.Context, opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, cfg.Database.Path, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s, err := New(ctx, db, Options{Config: cfg, Logger: opts.Logger, Clock: opts.Clock, Bus: opts.Bus})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New builds a [Session] over an already migrated database. The caller keeps ownership of db
// unless it calls [Session.Close].
func New(ctx context.Context, db *sql.DB, opts Options) (*Session, error) {
	s := &Session{
		db:     db,
		store:  repositories.NewStore(db, opts.Clock),
		bus:    opts.Bus,
		logger: opts.Logger,
		cfg:    opts.Config,
	}
	if s.cfg == nil {
		s.cfg = shared.DefaultConfig()
	}
	if s.bus == nil {
		s.bus = events.New()
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(io.Discard)
	}

	s.fairPlay.Store(s.cfg.Session.FairPlay)
	s.autoRotate.Store(s.cfg.Session.AutoRotate)

	info, err := s.store.Sessions().Ensure(ctx, s.sessionName())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("session opened", "name", info.Name, "uuid", info.UUID)
	return s, nil
}

// Close releases the database.
func (s *Session) Close() error {
	return s.db.Close()
}

// Bus returns the bus commands publish on.
func (s *Session) Bus() *events.Bus { return s.bus }

// Store returns the underlying store.
func (s *Session) Store() *repositories.Store { return s.store }

// Config returns the configuration the session was opened with.
func (s *Session) Config() *shared.Config { return s.cfg }

// Logger returns the session logger.
func (s *Session) Logger() *log.Logger { return s.logger }

// FairPlay reports whether new songs are placed with the fair play policy by default.
func (s *Session) FairPlay() bool { return s.fairPlay.Load() }

// SetFairPlay changes the default queue mode.
func (s *Session) SetFairPlay(on bool) { s.fairPlay.Store(on) }

// Mode is the default queue mode.
func (s *Session) Mode() queue.Mode { return queue.ModeFor(s.FairPlay()) }

// AutoRotate reports whether completing a song sends its singers to the back of the turn order.
func (s *Session) AutoRotate() bool { return s.autoRotate.Load() }

// SetAutoRotate changes the rotate-on-complete default.
func (s *Session) SetAutoRotate(on bool) { s.autoRotate.Store(on) }

func (s *Session) sessionName() string {
	if s.cfg.Session.Name != "" {
		return s.cfg.Session.Name
	}
	return repositories.DefaultSessionName
}

// command runs fn in one transaction and publishes kinds once it has committed.
func (s *Session) command(ctx context.Context, name string, kinds []events.Kind, fn func(tx *repositories.Store) error) error {
	s.mu.Lock()
	err := s.store.InTx(ctx, fn)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("command failed", "command", name, "error", err)
		return err
	}

	s.logger.Debug("command committed", "command", name)
	s.bus.Publish(kinds...)
	return nil
}
