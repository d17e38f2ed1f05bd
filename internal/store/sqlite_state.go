package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const keyLastStarted = "last_started_utc"

func (s *Store) SetAppState(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.Exec(`
		INSERT INTO app_state (key, value, updated_utc)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_utc=excluded.updated_utc
	`, key, value, now); err != nil {
		return fmt.Errorf("set app state %s: %w", key, err)
	}
	return nil
}

func (s *Store) GetAppState(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get app state %s: %w", key, err)
	}
	return value, true, nil
}

// MarkStarted stores the daemon start time and returns the previous one,
// empty on first start.
func (s *Store) MarkStarted(now time.Time) (string, error) {
	prev, _, err := s.GetAppState(keyLastStarted)
	if err != nil {
		return "", err
	}
	if err := s.SetAppState(keyLastStarted, now.UTC().Format(time.RFC3339)); err != nil {
		return "", err
	}
	return prev, nil
}

// LastStarted returns the stored daemon start time.
func (s *Store) LastStarted() string {
	v, _, _ := s.GetAppState(keyLastStarted)
	return v
}
