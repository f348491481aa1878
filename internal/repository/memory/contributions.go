package memory

import (
	"context"

	"github.com/starpool/starpool-backend/internal/models"
)

type contributions struct{ s *Store }

func (r *contributions) ListByUser(ctx context.Context, userID string, limit int) ([]models.Contribution, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := r.s.userContribs[userID]
	var out []models.Contribution
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, *r.s.contribs[ids[i]])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *contributions) CompletedByPool(ctx context.Context, poolID string) ([]models.Contribution, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Contribution
	for _, id := range r.s.poolContribs[poolID] {
		if c := r.s.contribs[id]; c.Status == models.ContributionCompleted {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *contributions) MarkRefunded(ctx context.Context, contributionID string, refund models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contribs[contributionID]
	if !ok {
		return models.ErrNotFound
	}
	if c.Status == models.ContributionRefunded {
		return nil
	}
	c.Status = models.ContributionRefunded
	if c.PaymentReference != "" {
		delete(r.s.usedRefs, c.PaymentReference)
	}
	r.s.txns[refund.UserID] = append(r.s.txns[refund.UserID], refund)
	return nil
}
