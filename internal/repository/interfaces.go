package repository

import (
	"context"
	"time"

	"github.com/starpool/starpool-backend/internal/models"
)

// Pools owns pool rows. Every mutation goes through Mutate, which runs fn
// under per-pool serialization: fn sees a consistent snapshot, and its edits
// plus any writes staged on the PoolWriter commit together iff fn returns
// nil. Mutations of distinct pools never contend.
type Pools interface {
	Create(ctx context.Context, p models.Pool) error
	Get(ctx context.Context, poolID string) (models.Pool, error)
	ListActive(ctx context.Context, limit int, creatorFilter string, now time.Time) ([]models.Pool, error)
	ExpiredIDs(ctx context.Context, now time.Time) ([]string, error)
	Mutate(ctx context.Context, poolID string, fn func(p *models.Pool, w PoolWriter) error) error
}

// PoolWriter stages writes that must land atomically with the pool row.
// Reads reflect committed state plus anything already staged in this unit.
type PoolWriter interface {
	HasCompletedContribution(userID string) (bool, error)
	PaymentReferenceUsed(ref string) (bool, error)
	InsertContribution(c models.Contribution) error
	BumpProfileContribution(userID string, amount int64) error
	AppendTransaction(t models.Transaction) error
	CompletedContributions() ([]models.Contribution, error)
}

type Contributions interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Contribution, error)
	CompletedByPool(ctx context.Context, poolID string) ([]models.Contribution, error)
	// MarkRefunded flips one completed contribution to refunded and appends
	// the paired refund transaction in the same unit of work. Flipping an
	// already refunded contribution is a no-op.
	MarkRefunded(ctx context.Context, contributionID string, refund models.Transaction) error
}

// Profiles owns wallet rows. Mutate has get-or-create semantics: fn receives
// a fresh zero-balance profile when none exists yet, and runs under per-user
// serialization independent of any pool.
type Profiles interface {
	Get(ctx context.Context, userID string) (models.Profile, error)
	GetOrCreate(ctx context.Context, userID string) (models.Profile, error)
	Mutate(ctx context.Context, userID string, fn func(p *models.Profile, w ProfileWriter) error) error
}

type ProfileWriter interface {
	AppendTransaction(t models.Transaction) error
}

type Transactions interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
}

type PoolEvents interface {
	Append(ctx context.Context, e models.PoolEvent) error
	ListByPool(ctx context.Context, poolID string) ([]models.PoolEvent, error)
}

type Repositories struct {
	Pools         Pools
	Contributions Contributions
	Profiles      Profiles
	Transactions  Transactions
	PoolEvents    PoolEvents
}
