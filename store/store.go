// Package store persists per-session key/value state in an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/giygas/medicamente-cnas/logging"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// Keys stored per session.
const (
	KeyPatientNotes     = "patientNotes"
	KeyDoctorNotes      = "doctorNotes"
	KeyDarkMode         = "darkMode"
	KeySelectedProducts = "selectedProducts"
	KeyMedicinePlans    = "medicinePlans"
	KeyExplorerState    = "explorerState"
)

// Entry is one key written by SetMany. An empty Value deletes the key.
type Entry struct {
	Key   string
	Value []byte
}

// KV is a namespaced key/value store.
type KV interface {
	Get(ctx context.Context, session, key string) ([]byte, error)
	Set(ctx context.Context, session, key string, value []byte) error
	SetMany(ctx context.Context, session string, entries []Entry) error
	Delete(ctx context.Context, session, key string) error
	Clear(ctx context.Context, session string) error
	Close() error
}

// Compile-time check
var _ KV = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	session    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session, key)
);
CREATE INDEX IF NOT EXISTS kv_updated_at ON kv(updated_at);
`

// SQLiteStore implements KV on a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:" is accepted for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			logging.Warn("Failed to enable WAL mode", "error", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create store schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, session, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE session = ? AND key = ?", session, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", session, key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, session, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (session, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		session, key, value, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", session, key, err)
	}
	return nil
}

// SetMany writes every entry in one transaction: either all keys change or none do.
func (s *SQLiteStore) SetMany(ctx context.Context, session string, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin write of %s: %w", session, err)
	}
	defer tx.Rollback()

	now := s.now().Unix()
	for _, e := range entries {
		if len(e.Value) == 0 {
			_, err = tx.ExecContext(ctx, "DELETE FROM kv WHERE session = ? AND key = ?", session, e.Key)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO kv (session, key, value, updated_at) VALUES (?, ?, ?, ?)
				 ON CONFLICT(session, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				session, e.Key, e.Value, now)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", session, e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", session, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, session, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE session = ? AND key = ?", session, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", session, key, err)
	}
	return nil
}

// Clear removes every key of a session.
func (s *SQLiteStore) Clear(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE session = ?", session); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", session, err)
	}
	return nil
}

// Prune deletes sessions untouched since before cutoff and returns how many rows went.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE session IN (
			SELECT session FROM kv GROUP BY session HAVING MAX(updated_at) < ?
		)`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
