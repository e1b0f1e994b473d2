// Package testenv manages the ephemeral test project lifecycle: provisioning
// a fresh upstream project with a known fixture set, persisting its identity
// locally, and tearing it down again. At most one live project exists per
// store.
package testenv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	projectBucket = "project"
	recordKey     = "record"
)

// Record is the persisted identity of the current test project. Resources
// maps fixture labels to the upstream ids they resolved to.
type Record struct {
	ProjectID string            `json:"project_id"`
	AppID     string            `json:"app_id"`
	AppToken  string            `json:"app_token"`
	BaseURL   string            `json:"base_url"`
	Resources map[string]string `json:"resources,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type Store struct {
	db   *bolt.DB
	path string
}

func OpenStore(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("test environment store path is required")
	}
	if dir := filepath.Dir(trimmed); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure store dir: %w", err)
		}
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(projectBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure store schema: %w", err)
	}
	return &Store{db: db, path: trimmed}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the persisted record, or ok=false when no project exists.
func (s *Store) Load() (Record, bool, error) {
	var record Record
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(projectBucket)).Get([]byte(recordKey))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		found = true
		return nil
	})
	return record, found, err
}

// Save persists the record in one update transaction.
func (s *Store) Save(record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(projectBucket)).Put([]byte(recordKey), raw)
	})
}

// Clear removes the record. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(projectBucket)).Delete([]byte(recordKey))
	})
}
