package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/starpool/starpool-backend/internal/models"
)

type contributionsRepo struct{ pool *pgxpool.Pool }

const contributionCols = `contribution_id, user_id, pool_id, amount, status, payment_reference, created_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryContributions(ctx context.Context, q querier, sql string, args ...any) ([]models.Contribution, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Contribution
	for rows.Next() {
		var c models.Contribution
		if err := rows.Scan(&c.ContributionID, &c.UserID, &c.PoolID, &c.Amount, &c.Status, &c.PaymentReference, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *contributionsRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Contribution, error) {
	return queryContributions(ctx, r.pool,
		`SELECT `+contributionCols+`
		   FROM contributions
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2`,
		userID, limit,
	)
}

func (r *contributionsRepo) CompletedByPool(ctx context.Context, poolID string) ([]models.Contribution, error) {
	return queryContributions(ctx, r.pool,
		`SELECT `+contributionCols+`
		   FROM contributions
		  WHERE pool_id=$1 AND status='completed'
		  ORDER BY created_at`,
		poolID,
	)
}

// MarkRefunded pairs the status flip with the refund ledger entry in one
// transaction. The conditional UPDATE makes concurrent cancellations safe:
// whoever flips the row appends the single refund entry, everyone else
// no-ops.
func (r *contributionsRepo) MarkRefunded(ctx context.Context, contributionID string, refund models.Transaction) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE contributions SET status='refunded'
		  WHERE contribution_id=$1 AND status='completed'`,
		contributionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM contributions WHERE contribution_id=$1)`,
			contributionID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return models.ErrNotFound
		}
		return nil // already refunded
	}

	if err := insertTransaction(ctx, tx, refund); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
