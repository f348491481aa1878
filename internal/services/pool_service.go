package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starpool/starpool-backend/internal/metrics"
	"github.com/starpool/starpool-backend/internal/models"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

const (
	MinPoolCost             = 10
	MaxPoolCost             = 1000
	DefaultPoolDurationDays = 7
	DefaultMaxContributors  = 100
	DefaultListLimit        = 10
)

type CreatePoolInput struct {
	CreatorName        string
	ContentTitle       string
	ContentDescription string
	ContentType        string
	TotalCost          int64
	CreatedBy          string
	DurationDays       int
	MaxContributors    int
	RequestID          *string
}

type PoolService struct {
	pools    repo.Pools
	contribs repo.Contributions
	events   repo.PoolEvents
	now      func() time.Time
}

func NewPoolService(pools repo.Pools, contribs repo.Contributions, events repo.PoolEvents) *PoolService {
	return &PoolService{pools: pools, contribs: contribs, events: events, now: time.Now}
}

func (s *PoolService) Create(ctx context.Context, in CreatePoolInput) (models.Pool, error) {
	if strings.TrimSpace(in.CreatorName) == "" {
		return models.Pool{}, fmt.Errorf("%w: creator name required", models.ErrValidation)
	}
	if strings.TrimSpace(in.ContentTitle) == "" {
		return models.Pool{}, fmt.Errorf("%w: content title required", models.ErrValidation)
	}
	if in.TotalCost < MinPoolCost || in.TotalCost > MaxPoolCost {
		return models.Pool{}, fmt.Errorf("%w: total cost must be between %d and %d", models.ErrValidation, MinPoolCost, MaxPoolCost)
	}
	if in.DurationDays <= 0 {
		in.DurationDays = DefaultPoolDurationDays
	}
	if in.MaxContributors <= 0 {
		in.MaxContributors = DefaultMaxContributors
	}

	now := s.now()
	p := models.Pool{
		PoolID:              models.NewPoolID(now),
		CreatorName:         in.CreatorName,
		ContentTitle:        in.ContentTitle,
		ContentDescription:  in.ContentDescription,
		ContentType:         in.ContentType,
		TotalCost:           in.TotalCost,
		MaxContributors:     in.MaxContributors,
		CurrentPricePerUser: evenSplit(in.TotalCost, in.MaxContributors),
		Status:              models.PoolActive,
		CreatedBy:           in.CreatedBy,
		RequestID:           in.RequestID,
		ExpiresAt:           now.AddDate(0, 0, in.DurationDays),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.pools.Create(ctx, p); err != nil {
		return models.Pool{}, err
	}
	s.appendEvent(ctx, p.PoolID, models.EventPoolCreated, map[string]any{
		"creator":    in.CreatorName,
		"total_cost": in.TotalCost,
	})
	slog.Info("pool created", "pool_id", p.PoolID, "creator", in.CreatorName, "total_cost", in.TotalCost)
	return p, nil
}

func (s *PoolService) Get(ctx context.Context, poolID string) (models.Pool, error) {
	return s.pools.Get(ctx, poolID)
}

func (s *PoolService) ListActive(ctx context.Context, limit int, creatorFilter string) ([]models.Pool, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.pools.ListActive(ctx, limit, creatorFilter, s.now())
}

// Complete marks a pool delivered and records where the content lives.
// Completing an already completed pool only refreshes the delivery pointers.
func (s *PoolService) Complete(ctx context.Context, poolID, contentURL string, landingPageID *string) (models.Pool, error) {
	if strings.TrimSpace(contentURL) == "" {
		return models.Pool{}, fmt.Errorf("%w: content url required", models.ErrValidation)
	}

	var (
		out          models.Pool
		transitioned bool
	)
	err := s.pools.Mutate(ctx, poolID, func(p *models.Pool, _ repo.PoolWriter) error {
		switch p.Status {
		case models.PoolActive:
			at := s.now()
			p.Status = models.PoolCompleted
			p.CompletedAt = &at
			transitioned = true
		case models.PoolCompleted:
		default:
			return fmt.Errorf("%w: cannot complete %s pool", models.ErrInvalidState, p.Status)
		}
		p.ContentURL = &contentURL
		if landingPageID != nil {
			p.LandingPageID = landingPageID
		}
		out = *p
		return nil
	})
	if err != nil {
		return models.Pool{}, err
	}
	if transitioned {
		s.appendEvent(ctx, poolID, models.EventPoolCompleted, map[string]any{"content_url": contentURL})
		metrics.PoolsCompletedTotal.Inc()
		slog.Info("pool completed", "pool_id", poolID, "content_url", contentURL)
	}
	return out, nil
}

// Cancel moves a pool to cancelled and refunds every completed contribution.
// The status flip is serialized on the pool; refunds then run one by one so
// a crash mid-way leaves retryable work, not a wedged pool. Re-cancelling a
// cancelled pool retries whatever refunds were left behind.
func (s *PoolService) Cancel(ctx context.Context, poolID, reason string) (int, error) {
	var (
		toRefund     []models.Contribution
		transitioned bool
	)
	err := s.pools.Mutate(ctx, poolID, func(p *models.Pool, w repo.PoolWriter) error {
		switch p.Status {
		case models.PoolActive, models.PoolExpired:
			p.Status = models.PoolCancelled
			transitioned = true
		case models.PoolCancelled:
		default:
			return fmt.Errorf("%w: cannot cancel %s pool", models.ErrInvalidState, p.Status)
		}
		var err error
		toRefund, err = w.CompletedContributions()
		return err
	})
	if err != nil {
		return 0, err
	}
	if transitioned {
		s.appendEvent(ctx, poolID, models.EventPoolCancelled, map[string]any{"reason": reason})
		metrics.PoolsCancelledTotal.Inc()
	}

	refunded := 0
	for _, c := range toRefund {
		now := s.now()
		txn := models.Transaction{
			TransactionID:  models.NewTransactionID(now, models.RefundIDPrefix),
			UserID:         c.UserID,
			Type:           models.TxnRefund,
			Amount:         c.Amount,
			PoolID:         &c.PoolID,
			ContributionID: &c.ContributionID,
			Description:    refundDescription(poolID, reason),
			CreatedAt:      now,
		}
		if err := s.contribs.MarkRefunded(ctx, c.ContributionID, txn); err != nil {
			slog.Error("refund failed", "pool_id", poolID, "contribution_id", c.ContributionID, "err", err)
			continue
		}
		refunded++
		metrics.RefundsTotal.Inc()
	}
	slog.Info("pool cancelled", "pool_id", poolID, "reason", reason, "refunded", refunded)
	return refunded, nil
}

// CleanupExpired cancels-with-refunds every pool whose deadline has passed.
// Pools that complete or get cancelled between the scan and the cancel are
// skipped; the next sweep sees a consistent picture again.
func (s *PoolService) CleanupExpired(ctx context.Context) (int, error) {
	ids, err := s.pools.ExpiredIDs(ctx, s.now())
	if err != nil {
		return 0, err
	}
	cleaned := 0
	for _, id := range ids {
		if _, err := s.Cancel(ctx, id, "Pool expired"); err != nil {
			slog.Warn("expired pool cleanup skipped", "pool_id", id, "err", err)
			continue
		}
		cleaned++
	}
	if cleaned > 0 {
		slog.Info("expired pools cleaned up", "count", cleaned)
	}
	return cleaned, nil
}

func (s *PoolService) Contributors(ctx context.Context, poolID string) ([]models.Contribution, error) {
	if _, err := s.pools.Get(ctx, poolID); err != nil {
		return nil, err
	}
	return s.contribs.CompletedByPool(ctx, poolID)
}

func (s *PoolService) EventsFor(ctx context.Context, poolID string) ([]models.PoolEvent, error) {
	if _, err := s.pools.Get(ctx, poolID); err != nil {
		return nil, err
	}
	return s.events.ListByPool(ctx, poolID)
}

func (s *PoolService) appendEvent(ctx context.Context, poolID, action string, details map[string]any) {
	err := s.events.Append(ctx, models.PoolEvent{
		ID:        models.NewEventID(),
		PoolID:    poolID,
		Action:    action,
		Details:   details,
		CreatedAt: s.now(),
	})
	if err != nil {
		slog.Warn("pool event append failed", "pool_id", poolID, "action", action, "err", err)
	}
}

func evenSplit(totalCost int64, maxContributors int) int64 {
	price := totalCost / int64(maxContributors)
	if price < 1 {
		price = 1
	}
	return price
}

func refundDescription(poolID, reason string) string {
	if reason == "" {
		reason = "no reason provided"
	}
	return fmt.Sprintf("Refund for cancelled pool %s: %s", poolID, reason)
}
