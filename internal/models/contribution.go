package models

import "time"

type ContributionStatus string

const (
	ContributionCompleted ContributionStatus = "completed"
	ContributionRefunded  ContributionStatus = "refunded"
)

type Contribution struct {
	ContributionID   string             `json:"contribution_id"`
	UserID           string             `json:"user_id"`
	PoolID           string             `json:"pool_id"`
	Amount           int64              `json:"amount"`
	Status           ContributionStatus `json:"status"`
	PaymentReference string             `json:"payment_reference,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}
