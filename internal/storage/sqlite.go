package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_kv (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, key)
);
CREATE TABLE IF NOT EXISTS session_meta (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// defaultSessionKey names the session used when the caller gives none.
const defaultSessionKey = "default_session"

const defaultTimeout = 5 * time.Second

// SQLite is a Storage persisted in an SQLite database. Keys are scoped by a
// session id so several sessions can share one file.
type SQLite struct {
	db        *sql.DB
	sessionID string
	timeout   time.Duration
}

// OpenSQLite opens (creating if needed) the database at path. An empty
// sessionID selects the file's default session, whose random id is chosen on
// first open and kept in the file. ":memory:" is accepted.
func OpenSQLite(path, sessionID string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if sessionID == "" {
		if sessionID, err = defaultSession(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &SQLite{db: db, sessionID: sessionID, timeout: defaultTimeout}, nil
}

func defaultSession(db *sql.DB) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_meta (name, value) VALUES (?, ?)`,
		defaultSessionKey, uuid.NewString(),
	); err != nil {
		return "", fmt.Errorf("create default session: %w", err)
	}

	var id string
	if err := db.QueryRowContext(ctx,
		`SELECT value FROM session_meta WHERE name = ?`, defaultSessionKey,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("read default session: %w", err)
	}
	return id, nil
}

// SessionID returns the session the store reads and writes.
func (s *SQLite) SessionID() string { return s.sessionID }

// Get implements Storage.
func (s *SQLite) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_kv WHERE session_id = ? AND key = ?`,
		s.sessionID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set implements Storage. Last writer wins.
func (s *SQLite) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_kv (session_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		s.sessionID, key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
