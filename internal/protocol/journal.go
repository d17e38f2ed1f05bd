package protocol

import "time"

// Journal outcomes.
const (
	OutcomeExecuted = "executed"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// JournalEntry records one discrete dispatch.
type JournalEntry struct {
	ID           int64     `json:"id"`
	Intent       string    `json:"intent"`
	Origin       string    `json:"origin"`
	Outcome      string    `json:"outcome"`
	Detail       string    `json:"detail,omitempty"`
	TimestampUTC time.Time `json:"timestamp_utc"`
}

type JournalResponse struct {
	Entries []JournalEntry `json:"entries"`
}

type FlushJournalResponse struct {
	Deleted int64 `json:"deleted"`
}
