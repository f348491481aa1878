package memory

import (
	"context"
	"time"

	"github.com/starpool/starpool-backend/internal/models"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

type profiles struct{ s *Store }

func (r *profiles) Get(ctx context.Context, userID string) (models.Profile, error) {
	r.s.mu.RLock()
	rec, ok := r.s.profiles[userID]
	r.s.mu.RUnlock()
	if !ok {
		return models.Profile{}, models.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.p, nil
}

func (r *profiles) GetOrCreate(ctx context.Context, userID string) (models.Profile, error) {
	rec := r.s.profileRecFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.p, nil
}

func (r *profiles) Mutate(ctx context.Context, userID string, fn func(p *models.Profile, w repo.ProfileWriter) error) error {
	rec := r.s.profileRecFor(userID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	p := rec.p
	w := &profileWriter{s: r.s}
	if err := fn(&p, w); err != nil {
		return err
	}
	w.apply()
	if p != rec.p {
		p.UpdatedAt = time.Now()
	}
	rec.p = p
	return nil
}

type profileWriter struct {
	s    *Store
	txns []models.Transaction
}

func (w *profileWriter) AppendTransaction(t models.Transaction) error {
	w.txns = append(w.txns, t)
	return nil
}

func (w *profileWriter) apply() {
	if len(w.txns) == 0 {
		return
	}
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	for _, t := range w.txns {
		w.s.txns[t.UserID] = append(w.s.txns[t.UserID], t)
	}
}
