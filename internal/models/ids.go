package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ledger entry ID prefixes. The prefix mirrors the transaction type so raw
// ledger dumps stay readable; uniqueness comes from the random suffix.
const (
	TxnIDPrefix    = "TXN"
	AddIDPrefix    = "ADD"
	DeductIDPrefix = "DEDUCT"
	RefundIDPrefix = "REFUND"
)

// NewPoolID returns a unique, time-ordered pool ID
// (POOL-<yyyymmddhhmmss>-<8 random hex>). Lexicographic order follows
// creation time to the second; no coordination needed.
func NewPoolID(now time.Time) string {
	return fmt.Sprintf("POOL-%s-%s", now.UTC().Format("20060102150405"), idSuffix())
}

// NewContributionID keeps the user visible for debugging; the random suffix
// disambiguates same-user contributions to different pools within a second.
func NewContributionID(now time.Time, userID string) string {
	return fmt.Sprintf("CONTRIB-%d-%s-%s", now.UTC().Unix(), userID, idSuffix())
}

func NewTransactionID(now time.Time, prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, now.UTC().Unix(), idSuffix())
}

func NewEventID() string { return uuid.NewString() }

func idSuffix() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
