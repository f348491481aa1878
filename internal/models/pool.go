package models

import (
	"math"
	"time"
)

type PoolStatus string

const (
	PoolActive    PoolStatus = "active"
	PoolCompleted PoolStatus = "completed"
	PoolCancelled PoolStatus = "cancelled"
	PoolExpired   PoolStatus = "expired"
)

type Pool struct {
	PoolID              string     `json:"pool_id"`
	CreatorName         string     `json:"creator_name"`
	ContentTitle        string     `json:"content_title"`
	ContentDescription  string     `json:"content_description,omitempty"`
	ContentType         string     `json:"content_type"`
	TotalCost           int64      `json:"total_cost"`
	CurrentAmount       int64      `json:"current_amount"`
	ContributorsCount   int        `json:"contributors_count"`
	MaxContributors     int        `json:"max_contributors"`
	CurrentPricePerUser int64      `json:"current_price_per_user"`
	Status              PoolStatus `json:"status"`
	CreatedBy           string     `json:"created_by"`
	RequestID           *string    `json:"request_id,omitempty"`
	ExpiresAt           time.Time  `json:"expires_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	ContentURL          *string    `json:"content_url,omitempty"`
	LandingPageID       *string    `json:"landing_page_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// CompletionPercent is derived, rounded to one decimal. Under concurrent
// contributions a caller may see a momentarily stale value.
func (p *Pool) CompletionPercent() float64 {
	if p.TotalCost <= 0 {
		return 0
	}
	pct := float64(p.CurrentAmount) / float64(p.TotalCost) * 100
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*10) / 10
}

func (p *Pool) IsExpired(now time.Time) bool { return now.After(p.ExpiresAt) }
