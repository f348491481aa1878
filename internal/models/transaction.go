package models

import "time"

type TransactionType string

const (
	TxnBalanceAddition  TransactionType = "balance_addition"
	TxnBalanceDeduction TransactionType = "balance_deduction"
	TxnPoolContribution TransactionType = "pool_contribution"
	TxnRefund           TransactionType = "refund"
)

// Transaction is one append-only ledger entry. Rows are never updated or
// deleted; the ledger is the audit source of truth for every balance or
// pool-amount mutation.
type Transaction struct {
	TransactionID    string          `json:"transaction_id"`
	UserID           string          `json:"user_id"`
	Type             TransactionType `json:"type"`
	Amount           int64           `json:"amount"`
	PoolID           *string         `json:"pool_id,omitempty"`
	ContributionID   *string         `json:"contribution_id,omitempty"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	Description      string          `json:"description"`
	CreatedAt        time.Time       `json:"created_at"`
}
