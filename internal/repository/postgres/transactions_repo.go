package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/starpool/starpool-backend/internal/models"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// insertTransaction appends one ledger entry. Runs against a pool or an open
// tx; ledger rows are append-only so there is no update counterpart.
func insertTransaction(ctx context.Context, e execer, t models.Transaction) error {
	_, err := e.Exec(ctx,
		`INSERT INTO transactions(
		   transaction_id, user_id, type, amount, pool_id, contribution_id,
		   payment_reference, description, created_at
		 ) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.TransactionID, t.UserID, t.Type, t.Amount, t.PoolID, t.ContributionID,
		t.PaymentReference, t.Description, t.CreatedAt,
	)
	return err
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT transaction_id, user_id, type, amount, pool_id, contribution_id,
		        payment_reference, description, created_at
		   FROM transactions
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.TransactionID, &t.UserID, &t.Type, &t.Amount, &t.PoolID, &t.ContributionID, &t.PaymentReference, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
