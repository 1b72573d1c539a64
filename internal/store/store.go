package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"golang.org/x/sync/singleflight"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// InitError reports that the database could not be opened or migrated.
// It is distinct from per-operation failures so callers can tell a
// broken store from a missing record.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize store: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store owns the SQLite connection. Initialization is lazy and memoized:
// concurrent callers of Ready share one in-flight setup, and a failed
// setup is retried on the next call.
type Store struct {
	dsn string

	group singleflight.Group

	mu     sync.Mutex
	db     *sql.DB
	drv    *entsql.Driver
	closed bool
}

// New returns an uninitialized Store for dsn. No I/O happens until Ready.
func New(dsn string) *Store {
	return &Store{dsn: dsn}
}

// Open creates a Store and initializes it immediately.
func Open(ctx context.Context, dsn string) (*Store, error) {
	s := New(dsn)
	if err := s.Ready(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Ready opens the database, applies pragmas and migrates the schema on
// first use. Later calls return immediately.
func (s *Store) Ready(ctx context.Context) error {
	_, err := s.driver(ctx)
	return err
}

func (s *Store) driver(ctx context.Context) (*entsql.Driver, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.drv != nil {
		drv := s.drv
		s.mu.Unlock()
		return drv, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("init", func() (any, error) {
		s.mu.Lock()
		if s.drv != nil {
			drv := s.drv
			s.mu.Unlock()
			return drv, nil
		}
		s.mu.Unlock()

		db, drv, err := initialize(ctx, s.dsn)
		if err != nil {
			return nil, &InitError{Err: err}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			db.Close()
			return nil, ErrClosed
		}
		s.db, s.drv = db, drv
		return drv, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entsql.Driver), nil
}

func initialize(ctx context.Context, dsn string) (*sql.DB, *entsql.Driver, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers and keeps per-connection pragmas
	// in effect for every statement.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(ctx, drv); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, drv, nil
}

// DB returns the underlying *sql.DB for raw queries, or nil before Ready.
func (s *Store) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Close closes the database connection. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.drv == nil {
		return nil
	}
	err := s.drv.Close()
	s.db, s.drv = nil, nil
	return err
}

// QuizRepo returns the catalog repository backed by this store.
func (s *Store) QuizRepo() QuizRepo {
	return &quizRepo{store: s}
}

// HistoryRepo returns the attempt history repository backed by this store.
func (s *Store) HistoryRepo() HistoryRepo {
	return &historyRepo{store: s}
}

// SettingsRepo returns the preferences repository backed by this store.
func (s *Store) SettingsRepo() SettingsRepo {
	return &settingsRepo{store: s}
}

// applyPragmas configures SQLite for single-user local use.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZPULSE_DB environment variable
// 2. $XDG_DATA_HOME/quizpulse/quizpulse.db
// 3. ~/.local/share/quizpulse/quizpulse.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZPULSE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "quizpulse", "quizpulse.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
