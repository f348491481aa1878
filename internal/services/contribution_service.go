package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starpool/starpool-backend/internal/metrics"
	"github.com/starpool/starpool-backend/internal/models"
	"github.com/starpool/starpool-backend/internal/pricing"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

// ContributionOutcome reports an accepted contribution: the amount actually
// charged (possibly clamped to the pool remainder), the quote for the next
// contributor, and whether this contribution funded the pool.
type ContributionOutcome struct {
	ContributionID string `json:"contribution_id"`
	PoolID         string `json:"pool_id"`
	AmountCharged  int64  `json:"amount_charged"`
	NextPrice      int64  `json:"next_price"`
	PoolCompleted  bool   `json:"pool_completed"`
	Message        string `json:"message"`
}

type ContributionService struct {
	pools  repo.Pools
	events repo.PoolEvents
	now    func() time.Time
}

func NewContributionService(pools repo.Pools, events repo.PoolEvents) *ContributionService {
	return &ContributionService{pools: pools, events: events, now: time.Now}
}

// Contribute applies one contribution as a single pool-serialized unit of
// work: precondition checks, dynamic pricing with exact-remainder clamping,
// the contribution row, pool counters, the contributor's profile and the
// ledger entry all commit together or not at all.
func (s *ContributionService) Contribute(ctx context.Context, poolID, userID, paymentReference string) (ContributionOutcome, error) {
	if userID == "" {
		return ContributionOutcome{}, fmt.Errorf("%w: user id required", models.ErrValidation)
	}

	var (
		out     ContributionOutcome
		failure error
		expired bool
		funded  int64
	)
	err := s.pools.Mutate(ctx, poolID, func(p *models.Pool, w repo.PoolWriter) error {
		now := s.now()

		switch {
		case p.Status != models.PoolActive:
			failure = fmt.Errorf("%w: pool is %s", models.ErrInvalidState, p.Status)
			return nil
		case p.IsExpired(now):
			// Lazy transition. Returning nil commits the status flip even
			// though the contribution itself fails.
			p.Status = models.PoolExpired
			expired = true
			failure = models.ErrPoolExpired
			return nil
		case p.ContributorsCount >= p.MaxContributors:
			failure = models.ErrPoolFull
			return nil
		}

		if dup, err := w.HasCompletedContribution(userID); err != nil {
			return err
		} else if dup {
			failure = models.ErrAlreadyContributed
			return nil
		}
		if used, err := w.PaymentReferenceUsed(paymentReference); err != nil {
			return err
		} else if used {
			failure = fmt.Errorf("%w: payment reference already applied", models.ErrAlreadyContributed)
			return nil
		}

		price := pricing.PerUser(p.TotalCost, p.ContributorsCount, p.MaxContributors)
		if p.CurrentAmount+price >= p.TotalCost {
			price = p.TotalCost - p.CurrentAmount // exact remainder, never overshoot
		}

		c := models.Contribution{
			ContributionID:   models.NewContributionID(now, userID),
			UserID:           userID,
			PoolID:           poolID,
			Amount:           price,
			Status:           models.ContributionCompleted,
			PaymentReference: paymentReference,
			CreatedAt:        now,
		}
		if err := w.InsertContribution(c); err != nil {
			return err
		}

		p.CurrentAmount += price
		p.ContributorsCount++
		p.CurrentPricePerUser = pricing.PerUser(p.TotalCost, p.ContributorsCount, p.MaxContributors)

		completed := p.CurrentAmount >= p.TotalCost
		if completed {
			at := now
			p.Status = models.PoolCompleted
			p.CompletedAt = &at
			funded = p.CurrentAmount
		}

		if err := w.BumpProfileContribution(userID, price); err != nil {
			return err
		}
		if err := w.AppendTransaction(models.Transaction{
			TransactionID:    models.NewTransactionID(now, models.TxnIDPrefix),
			UserID:           userID,
			Type:             models.TxnPoolContribution,
			Amount:           price,
			PoolID:           &c.PoolID,
			ContributionID:   &c.ContributionID,
			PaymentReference: strPtr(paymentReference),
			Description:      fmt.Sprintf("Contribution to pool %s", poolID),
			CreatedAt:        now,
		}); err != nil {
			return err
		}

		out = ContributionOutcome{
			ContributionID: c.ContributionID,
			PoolID:         poolID,
			AmountCharged:  price,
			NextPrice:      p.CurrentPricePerUser,
			PoolCompleted:  completed,
		}
		return nil
	})
	// the backstop indexes can reject a racing duplicate at commit
	if err != nil && errors.Is(err, models.ErrAlreadyContributed) {
		failure = err
		err = nil
	}
	if err != nil {
		metrics.ContributionsTotal.WithLabelValues("error").Inc()
		return ContributionOutcome{}, err
	}
	if failure != nil {
		if expired {
			s.appendEvent(ctx, poolID, models.EventPoolExpired, nil)
		}
		metrics.ContributionsTotal.WithLabelValues(failureLabel(failure)).Inc()
		return ContributionOutcome{}, failure
	}

	if out.PoolCompleted {
		out.Message = fmt.Sprintf("charged %d; pool completed", out.AmountCharged)
		s.appendEvent(ctx, poolID, models.EventPoolCompleted, map[string]any{"final_amount": funded})
		metrics.PoolsCompletedTotal.Inc()
	} else {
		out.Message = fmt.Sprintf("charged %d; next contributor pays %d", out.AmountCharged, out.NextPrice)
	}
	metrics.ContributionsTotal.WithLabelValues("accepted").Inc()
	slog.Info("contribution accepted",
		"pool_id", poolID, "user_id", userID,
		"amount", out.AmountCharged, "pool_completed", out.PoolCompleted)
	return out, nil
}

func (s *ContributionService) appendEvent(ctx context.Context, poolID, action string, details map[string]any) {
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

func failureLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, models.ErrPoolExpired):
		return "expired"
	case errors.Is(err, models.ErrPoolFull):
		return "pool_full"
	case errors.Is(err, models.ErrAlreadyContributed):
		return "already_contributed"
	default:
		return "error"
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
