package models

import "time"

// Profile is a user's wallet plus lifetime contribution counters. Balance is
// integer currency units (Stars) and never goes negative.
type Profile struct {
	UserID           string    `json:"user_id"`
	Balance          int64     `json:"balance"`
	TotalSpent       int64     `json:"total_spent"`
	TotalContributed int64     `json:"total_contributed"`
	PoolsJoined      int       `json:"pools_joined"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
