package memory

import (
	"context"

	"github.com/starpool/starpool-backend/internal/models"
)

type poolEvents struct{ s *Store }

func (r *poolEvents) Append(ctx context.Context, e models.PoolEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events[e.PoolID] = append(r.s.events[e.PoolID], e)
	return nil
}

func (r *poolEvents) ListByPool(ctx context.Context, poolID string) ([]models.PoolEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]models.PoolEvent(nil), r.s.events[poolID]...), nil
}
