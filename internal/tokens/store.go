// Package tokens persists provider credentials between runs so the user
// only has to authenticate once per service.
package tokens

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when no credentials are stored for a service.
var ErrNotFound = errors.New("no stored credentials")

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	service    TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Store is a small SQLite-backed credential cache keyed by service name.
// Payloads are opaque JSON; each source adapter owns its own shape.
type Store struct {
	db *sql.DB
}

// Open creates or opens the token database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping token database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save stores the credentials for a service, replacing any previous entry.
func (s *Store) Save(ctx context.Context, service string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tokens (service, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(service) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		service, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save credentials for %s: %w", service, err)
	}
	return nil
}

// Load reads the credentials for a service into dest. Returns ErrNotFound
// when the service has never authenticated.
func (s *Store) Load(ctx context.Context, service string, dest any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM tokens WHERE service = ?", service).Scan(&payload)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load credentials for %s: %w", service, err)
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return fmt.Errorf("failed to decode credentials for %s: %w", service, err)
	}
	return nil
}

// Delete removes the stored credentials for a service. Deleting a service
// that was never stored is not an error.
func (s *Store) Delete(ctx context.Context, service string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE service = ?", service); err != nil {
		return fmt.Errorf("failed to delete credentials for %s: %w", service, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
