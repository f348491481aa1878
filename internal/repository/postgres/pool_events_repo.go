package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/starpool/starpool-backend/internal/models"
)

type poolEventsRepo struct{ pool *pgxpool.Pool }

func (r *poolEventsRepo) Append(ctx context.Context, e models.PoolEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO pool_events(id, pool_id, action, details, created_at)
		 VALUES($1,$2,$3,$4,$5)`,
		e.ID, e.PoolID, e.Action, e.Details, e.CreatedAt,
	)
	return err
}

func (r *poolEventsRepo) ListByPool(ctx context.Context, poolID string) ([]models.PoolEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, pool_id, action, details, created_at
		   FROM pool_events
		  WHERE pool_id=$1
		  ORDER BY created_at`,
		poolID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PoolEvent
	for rows.Next() {
		var e models.PoolEvent
		if err := rows.Scan(&e.ID, &e.PoolID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
