package memory

import (
	"context"

	"github.com/starpool/starpool-backend/internal/models"
)

type transactions struct{ s *Store }

func (r *transactions) ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entries := r.s.txns[userID]
	var out []models.Transaction
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
