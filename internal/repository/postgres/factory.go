package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Pools:         &poolsRepo{pool},
		Contributions: &contributionsRepo{pool},
		Profiles:      &profilesRepo{pool},
		Transactions:  &transactionsRepo{pool},
		PoolEvents:    &poolEventsRepo{pool},
	}
}
