package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/starpool/starpool-backend/internal/models"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

type poolsRepo struct{ pool *pgxpool.Pool }

const poolCols = `pool_id, creator_name, content_title, content_description, content_type,
       total_cost, current_amount, contributors_count, max_contributors,
       current_price_per_user, status, created_by, request_id, expires_at,
       completed_at, content_url, landing_page_id, created_at, updated_at`

func scanPool(row pgx.Row) (models.Pool, error) {
	var p models.Pool
	err := row.Scan(
		&p.PoolID, &p.CreatorName, &p.ContentTitle, &p.ContentDescription, &p.ContentType,
		&p.TotalCost, &p.CurrentAmount, &p.ContributorsCount, &p.MaxContributors,
		&p.CurrentPricePerUser, &p.Status, &p.CreatedBy, &p.RequestID, &p.ExpiresAt,
		&p.CompletedAt, &p.ContentURL, &p.LandingPageID, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *poolsRepo) Create(ctx context.Context, p models.Pool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO pools(
		   pool_id, creator_name, content_title, content_description, content_type,
		   total_cost, current_amount, contributors_count, max_contributors,
		   current_price_per_user, status, created_by, request_id, expires_at,
		   created_at, updated_at
		 ) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)`,
		p.PoolID, p.CreatorName, p.ContentTitle, p.ContentDescription, p.ContentType,
		p.TotalCost, p.CurrentAmount, p.ContributorsCount, p.MaxContributors,
		p.CurrentPricePerUser, p.Status, p.CreatedBy, p.RequestID, p.ExpiresAt,
		p.CreatedAt,
	)
	return err
}

func (r *poolsRepo) Get(ctx context.Context, poolID string) (models.Pool, error) {
	p, err := scanPool(r.pool.QueryRow(ctx,
		`SELECT `+poolCols+` FROM pools WHERE pool_id=$1`, poolID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Pool{}, models.ErrNotFound
	}
	return p, err
}

func (r *poolsRepo) ListActive(ctx context.Context, limit int, creatorFilter string, now time.Time) ([]models.Pool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+poolCols+`
		   FROM pools
		  WHERE status='active' AND expires_at > $1
		    AND ($2 = '' OR creator_name ILIKE '%' || $2 || '%')
		  ORDER BY created_at DESC, pool_id DESC
		  LIMIT $3`,
		now, creatorFilter, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *poolsRepo) ExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pool_id FROM pools WHERE status='active' AND expires_at < $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Mutate serializes on the pool row: SELECT ... FOR UPDATE blocks concurrent
// mutations of the same pool while distinct pools proceed in parallel. The
// snapshot edits and everything staged on the writer commit together.
func (r *poolsRepo) Mutate(ctx context.Context, poolID string, fn func(p *models.Pool, w repo.PoolWriter) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPool(tx.QueryRow(ctx,
		`SELECT `+poolCols+` FROM pools WHERE pool_id=$1 FOR UPDATE`, poolID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}

	before := p
	if err := fn(&p, &poolWriter{ctx: ctx, tx: tx, poolID: poolID}); err != nil {
		return err
	}

	if p != before {
		_, err = tx.Exec(ctx,
			`UPDATE pools
			    SET current_amount=$2, contributors_count=$3, current_price_per_user=$4,
			        status=$5, completed_at=$6, content_url=$7, landing_page_id=$8,
			        updated_at=now()
			  WHERE pool_id=$1`,
			p.PoolID, p.CurrentAmount, p.ContributorsCount, p.CurrentPricePerUser,
			p.Status, p.CompletedAt, p.ContentURL, p.LandingPageID,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

type poolWriter struct {
	ctx    context.Context
	tx     pgx.Tx
	poolID string
}

func (w *poolWriter) HasCompletedContribution(userID string) (bool, error) {
	var exists bool
	err := w.tx.QueryRow(w.ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM contributions
		    WHERE user_id=$1 AND pool_id=$2 AND status='completed')`,
		userID, w.poolID,
	).Scan(&exists)
	return exists, err
}

func (w *poolWriter) PaymentReferenceUsed(ref string) (bool, error) {
	if ref == "" {
		return false, nil
	}
	var exists bool
	err := w.tx.QueryRow(w.ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM contributions
		    WHERE payment_reference=$1 AND status='completed')`,
		ref,
	).Scan(&exists)
	return exists, err
}

func (w *poolWriter) InsertContribution(c models.Contribution) error {
	_, err := w.tx.Exec(w.ctx,
		`INSERT INTO contributions(
		   contribution_id, user_id, pool_id, amount, status, payment_reference, created_at
		 ) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		c.ContributionID, c.UserID, c.PoolID, c.Amount, c.Status, c.PaymentReference, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		// backstop for the partial unique indexes
		return models.ErrAlreadyContributed
	}
	return err
}

func (w *poolWriter) BumpProfileContribution(userID string, amount int64) error {
	_, err := w.tx.Exec(w.ctx,
		`INSERT INTO profiles(user_id, total_contributed, pools_joined)
		 VALUES($1, $2, 1)
		 ON CONFLICT (user_id) DO UPDATE
		 SET total_contributed = profiles.total_contributed + EXCLUDED.total_contributed,
		     pools_joined      = profiles.pools_joined + 1,
		     updated_at        = now()`,
		userID, amount,
	)
	return err
}

func (w *poolWriter) AppendTransaction(t models.Transaction) error {
	return insertTransaction(w.ctx, w.tx, t)
}

func (w *poolWriter) CompletedContributions() ([]models.Contribution, error) {
	return queryContributions(w.ctx, w.tx,
		`SELECT `+contributionCols+`
		   FROM contributions
		  WHERE pool_id=$1 AND status='completed'
		  ORDER BY created_at`,
		w.poolID,
	)
}
