// Package store provides SQLite-backed persistence for the agent's
// registration state: the machine GUID, registration digest, server-echoed
// identity fields, the cached timing estimate and the no-more-work flag.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// Well-known setting keys.
const (
	KeyGUID               = "guid"
	KeyRegistrationDigest = "registration_digest"
	KeyUsername           = "username"
	KeyUserName           = "user_name" // display name echoed by the server
	KeyHostname           = "hostname"
	KeyWorkType           = "worktype"
	KeyDaysOfWork         = "days_work"
	KeyUsecPerIter        = "usec_per_iter"
	KeyFirstTime          = "first_time"
	KeyNoMoreWork         = "no_more_work"
)

// Store provides access to the agent's settings database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value for key; ok is false when the key is unset.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a setting.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a setting; deleting an unset key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// GetFloat reads a float-valued setting.
func (s *Store) GetFloat(key string) (float64, bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, false, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("setting %s is not a number: %w", key, err)
	}
	return f, true, nil
}

// SetFloat writes a float-valued setting.
func (s *Store) SetFloat(key string, f float64) error {
	return s.Set(key, strconv.FormatFloat(f, 'f', 2, 64))
}

// GetBool reads a boolean setting; an unset key is false.
func (s *Store) GetBool(key string) (bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("setting %s is not a boolean: %w", key, err)
	}
	return b, nil
}

// SetBool writes a boolean setting.
func (s *Store) SetBool(key string, b bool) error {
	return s.Set(key, strconv.FormatBool(b))
}

// GUID returns the persisted machine GUID, or "" when the node has never
// registered.
func (s *Store) GUID() (string, error) {
	v, _, err := s.Get(KeyGUID)
	return v, err
}
