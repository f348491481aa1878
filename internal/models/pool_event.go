package models

import "time"

// PoolEvent is an operational audit record of a pool lifecycle transition.
// Distinct from Transaction: it carries no money and is appended best-effort.
type PoolEvent struct {
	ID        string         `json:"id"`
	PoolID    string         `json:"pool_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

const (
	EventPoolCreated   = "created"
	EventPoolCompleted = "completed"
	EventPoolCancelled = "cancelled"
	EventPoolExpired   = "expired"
)
