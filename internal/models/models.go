package models

import (
	"database/sql"
	"time"
)

// SessionStatus is the lifecycle state of a relay session
type SessionStatus string

const (
	StatusWaiting    SessionStatus = "WAITING"
	StatusInProgress SessionStatus = "IN_PROGRESS"
	StatusCompleted  SessionStatus = "COMPLETED"
	StatusCancelled  SessionStatus = "CANCELLED"
)

// Finished reports whether the session no longer accepts events
func (s SessionStatus) Finished() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Session represents one networked game between two seats
type Session struct {
	ID          string        `db:"id" json:"id"`
	Status      SessionStatus `db:"status" json:"status"`
	Rack        string        `db:"rack" json:"rack"`
	RackSeed    int64         `db:"rack_seed" json:"rack_seed"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	StartedAt   sql.NullTime  `db:"started_at" json:"started_at,omitempty"`
	CompletedAt sql.NullTime  `db:"completed_at" json:"completed_at,omitempty"`
	ExpiresAt   time.Time     `db:"expires_at" json:"expires_at"`
}

// SessionEvent is one journaled wire frame
type SessionEvent struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Seq       int       `db:"seq" json:"seq"`
	Seat      int       `db:"seat" json:"seat"`
	EventType string    `db:"event_type" json:"event_type"`
	Payload   string    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
