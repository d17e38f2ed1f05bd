package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/izzyreal/padnav/internal/protocol"
)

const defaultJournalLimit = 100

// RecordAction appends one dispatch outcome to the journal.
func (s *Store) RecordAction(e protocol.JournalEntry) error {
	ts := e.TimestampUTC
	if ts.IsZero() {
		ts = time.Now()
	}
	if strings.TrimSpace(e.Intent) == "" {
		return fmt.Errorf("record action: intent is required")
	}
	if _, err := s.db.Exec(`
		INSERT INTO action_journal (intent, origin, outcome, detail, created_utc)
		VALUES (?, ?, ?, ?, ?)
	`, e.Intent, e.Origin, e.Outcome, e.Detail, ts.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// ListActions returns the newest entries first. A non-positive limit means
// the default of 100.
func (s *Store) ListActions(limit int) ([]protocol.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	rows, err := s.db.Query(`
		SELECT id, intent, origin, outcome, detail, created_utc
		FROM action_journal
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	out := []protocol.JournalEntry{}
	for rows.Next() {
		var (
			e          protocol.JournalEntry
			createdUTC string
		)
		if err := rows.Scan(&e.ID, &e.Intent, &e.Origin, &e.Outcome, &e.Detail, &createdUTC); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdUTC); err == nil {
			e.TimestampUTC = t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return out, nil
}

// FlushActions deletes every journal entry and reports how many went.
func (s *Store) FlushActions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM action_journal`)
	if err != nil {
		return 0, fmt.Errorf("flush actions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
