package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/starpool/starpool-backend/internal/models"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

type profilesRepo struct{ pool *pgxpool.Pool }

const profileCols = `user_id, balance, total_spent, total_contributed, pools_joined, created_at, updated_at`

func scanProfile(row pgx.Row) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Balance, &p.TotalSpent, &p.TotalContributed, &p.PoolsJoined, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *profilesRepo) Get(ctx context.Context, userID string) (models.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE user_id=$1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, models.ErrNotFound
	}
	return p, err
}

func (r *profilesRepo) GetOrCreate(ctx context.Context, userID string) (models.Profile, error) {
	if p, err := r.Get(ctx, userID); err == nil {
		return p, nil
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO profiles(user_id) VALUES($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return models.Profile{}, err
	}
	return r.Get(ctx, userID)
}

// Mutate serializes on the profile row (created on first touch). Wallet
// edits and staged ledger entries commit together.
func (r *profilesRepo) Mutate(ctx context.Context, userID string, fn func(p *models.Profile, w repo.ProfileWriter) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles(user_id) VALUES($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return err
	}
	p, err := scanProfile(tx.QueryRow(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE user_id=$1 FOR UPDATE`, userID))
	if err != nil {
		return err
	}

	before := p
	if err := fn(&p, &profileWriter{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if p != before {
		_, err = tx.Exec(ctx,
			`UPDATE profiles
			    SET balance=$2, total_spent=$3, total_contributed=$4, pools_joined=$5,
			        updated_at=now()
			  WHERE user_id=$1`,
			p.UserID, p.Balance, p.TotalSpent, p.TotalContributed, p.PoolsJoined,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

type profileWriter struct {
	ctx context.Context
	tx  pgx.Tx
}

func (w *profileWriter) AppendTransaction(t models.Transaction) error {
	return insertTransaction(w.ctx, w.tx, t)
}
