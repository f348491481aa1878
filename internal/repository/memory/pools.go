package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starpool/starpool-backend/internal/models"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

type pools struct{ s *Store }

func (r *pools) Create(ctx context.Context, p models.Pool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.pools[p.PoolID]; ok {
		return fmt.Errorf("pool %s already exists", p.PoolID)
	}
	r.s.pools[p.PoolID] = &poolRec{p: p}
	return nil
}

func (r *pools) Get(ctx context.Context, poolID string) (models.Pool, error) {
	r.s.mu.RLock()
	rec, ok := r.s.pools[poolID]
	r.s.mu.RUnlock()
	if !ok {
		return models.Pool{}, models.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.p, nil
}

func (r *pools) ListActive(ctx context.Context, limit int, creatorFilter string, now time.Time) ([]models.Pool, error) {
	r.s.mu.RLock()
	recs := make([]*poolRec, 0, len(r.s.pools))
	for _, rec := range r.s.pools {
		recs = append(recs, rec)
	}
	r.s.mu.RUnlock()

	filter := strings.ToLower(creatorFilter)
	var out []models.Pool
	for _, rec := range recs {
		rec.mu.Lock()
		p := rec.p
		rec.mu.Unlock()
		if p.Status != models.PoolActive || !p.ExpiresAt.After(now) {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(p.CreatorName), filter) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].PoolID > out[j].PoolID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *pools) ExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	r.s.mu.RLock()
	recs := make([]*poolRec, 0, len(r.s.pools))
	for _, rec := range r.s.pools {
		recs = append(recs, rec)
	}
	r.s.mu.RUnlock()

	var out []string
	for _, rec := range recs {
		rec.mu.Lock()
		if rec.p.Status == models.PoolActive && rec.p.ExpiresAt.Before(now) {
			out = append(out, rec.p.PoolID)
		}
		rec.mu.Unlock()
	}
	sort.Strings(out)
	return out, nil
}

func (r *pools) Mutate(ctx context.Context, poolID string, fn func(p *models.Pool, w repo.PoolWriter) error) error {
	r.s.mu.RLock()
	rec, ok := r.s.pools[poolID]
	r.s.mu.RUnlock()
	if !ok {
		return models.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	p := rec.p
	w := &poolWriter{s: r.s, poolID: poolID}
	if err := fn(&p, w); err != nil {
		return err
	}
	if err := w.apply(); err != nil {
		return err
	}
	if p != rec.p {
		p.UpdatedAt = time.Now()
	}
	rec.p = p
	return nil
}

// poolWriter stages writes while the pool record lock is held and applies
// them only when the mutation closure succeeds. Validation happens first,
// under the store lock, so apply is all-or-nothing.
type poolWriter struct {
	s        *Store
	poolID   string
	contribs []models.Contribution
	bumps    []profileBump
	txns     []models.Transaction
}

type profileBump struct {
	userID string
	amount int64
}

func (w *poolWriter) HasCompletedContribution(userID string) (bool, error) {
	for _, c := range w.contribs {
		if c.UserID == userID && c.Status == models.ContributionCompleted {
			return true, nil
		}
	}
	w.s.mu.RLock()
	defer w.s.mu.RUnlock()
	for _, id := range w.s.poolContribs[w.poolID] {
		c := w.s.contribs[id]
		if c.UserID == userID && c.Status == models.ContributionCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (w *poolWriter) PaymentReferenceUsed(ref string) (bool, error) {
	if ref == "" {
		return false, nil
	}
	for _, c := range w.contribs {
		if c.PaymentReference == ref && c.Status == models.ContributionCompleted {
			return true, nil
		}
	}
	w.s.mu.RLock()
	defer w.s.mu.RUnlock()
	_, used := w.s.usedRefs[ref]
	return used, nil
}

func (w *poolWriter) InsertContribution(c models.Contribution) error {
	w.contribs = append(w.contribs, c)
	return nil
}

func (w *poolWriter) BumpProfileContribution(userID string, amount int64) error {
	w.bumps = append(w.bumps, profileBump{userID: userID, amount: amount})
	return nil
}

func (w *poolWriter) AppendTransaction(t models.Transaction) error {
	w.txns = append(w.txns, t)
	return nil
}

func (w *poolWriter) CompletedContributions() ([]models.Contribution, error) {
	w.s.mu.RLock()
	var out []models.Contribution
	for _, id := range w.s.poolContribs[w.poolID] {
		if c := w.s.contribs[id]; c.Status == models.ContributionCompleted {
			out = append(out, *c)
		}
	}
	w.s.mu.RUnlock()
	for _, c := range w.contribs {
		if c.Status == models.ContributionCompleted {
			out = append(out, c)
		}
	}
	return out, nil
}

func (w *poolWriter) apply() error {
	w.s.mu.Lock()
	// Cross-pool payment reference uniqueness is the one check the pool
	// record lock cannot cover; re-validate before touching anything.
	for _, c := range w.contribs {
		if c.Status == models.ContributionCompleted && c.PaymentReference != "" {
			if _, used := w.s.usedRefs[c.PaymentReference]; used {
				w.s.mu.Unlock()
				return models.ErrAlreadyContributed
			}
		}
	}
	for i := range w.contribs {
		c := w.contribs[i]
		w.s.contribs[c.ContributionID] = &c
		w.s.poolContribs[c.PoolID] = append(w.s.poolContribs[c.PoolID], c.ContributionID)
		w.s.userContribs[c.UserID] = append(w.s.userContribs[c.UserID], c.ContributionID)
		if c.Status == models.ContributionCompleted && c.PaymentReference != "" {
			w.s.usedRefs[c.PaymentReference] = c.ContributionID
		}
	}
	for _, t := range w.txns {
		w.s.txns[t.UserID] = append(w.s.txns[t.UserID], t)
	}
	w.s.mu.Unlock()

	for _, b := range w.bumps {
		rec := w.s.profileRecFor(b.userID)
		rec.mu.Lock()
		rec.p.TotalContributed += b.amount
		rec.p.PoolsJoined++
		rec.p.UpdatedAt = time.Now()
		rec.mu.Unlock()
	}
	return nil
}
