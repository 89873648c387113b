package domain

import "time"

// QuotaRecord is the per-user metered-call counter. Remaining stays within
// [0, role quota]; WindowStart never moves backwards. A window rollover
// overwrites both fields in one step.
type QuotaRecord struct {
	UserID      string
	Remaining   int
	WindowStart time.Time
}

// RequestLog is an append-only record of one admitted prediction call.
// Entries are never mutated after insert.
type RequestLog struct {
	ID          int64
	UserID      string
	RequestedAt time.Time
	Latitude    float64
	Longitude   float64
}
