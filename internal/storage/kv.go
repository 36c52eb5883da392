package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// KV is a namespaced key/value store. Each browser device (or CLI profile)
// gets its own namespace, playing the role of the device's local storage.
type KV struct {
	db        *DB
	namespace string
}

// NewKV creates a key/value store scoped to namespace
func NewKV(db *DB, namespace string) *KV {
	return &KV{db: db, namespace: namespace}
}

// Get returns the value for key; ok is false when the key is absent
func (s *KV) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		"SELECT value FROM kv WHERE namespace = ? AND key = ?",
		s.namespace, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (s *KV) Set(key, value string) error {
	query := `
		INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, s.namespace, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting an absent key is not an error
func (s *KV) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE namespace = ? AND key = ?", s.namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DeviceNamespace returns the KV namespace of a browser device or CLI profile
func DeviceNamespace(deviceID string) string {
	return "device:" + deviceID
}
