package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starpool/starpool-backend/internal/models"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

type BalanceService struct {
	profiles repo.Profiles
	txns     repo.Transactions
	contribs repo.Contributions
	now      func() time.Time
}

func NewBalanceService(profiles repo.Profiles, txns repo.Transactions, contribs repo.Contributions) *BalanceService {
	return &BalanceService{profiles: profiles, txns: txns, contribs: contribs, now: time.Now}
}

func (s *BalanceService) GetOrCreateProfile(ctx context.Context, userID string) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, fmt.Errorf("%w: user id required", models.ErrValidation)
	}
	return s.profiles.GetOrCreate(ctx, userID)
}

func (s *BalanceService) AddBalance(ctx context.Context, userID string, amount int64, description string) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, fmt.Errorf("%w: user id required", models.ErrValidation)
	}
	if amount <= 0 {
		return models.Profile{}, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}
	if description == "" {
		description = "Balance addition"
	}

	var out models.Profile
	err := s.profiles.Mutate(ctx, userID, func(p *models.Profile, w repo.ProfileWriter) error {
		now := s.now()
		p.Balance += amount
		if err := w.AppendTransaction(models.Transaction{
			TransactionID: models.NewTransactionID(now, models.AddIDPrefix),
			UserID:        userID,
			Type:          models.TxnBalanceAddition,
			Amount:        amount,
			Description:   description,
			CreatedAt:     now,
		}); err != nil {
			return err
		}
		out = *p
		return nil
	})
	if err != nil {
		return models.Profile{}, err
	}
	slog.Info("balance added", "user_id", userID, "amount", amount, "balance", out.Balance)
	return out, nil
}

// DeductBalance withdraws from a profile, failing with ErrInsufficientBalance
// when the balance cannot cover the amount. Deductions count toward totalSpent.
func (s *BalanceService) DeductBalance(ctx context.Context, userID string, amount int64, description string) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, fmt.Errorf("%w: user id required", models.ErrValidation)
	}
	if amount <= 0 {
		return models.Profile{}, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}
	if description == "" {
		description = "Balance deduction"
	}

	var out models.Profile
	err := s.profiles.Mutate(ctx, userID, func(p *models.Profile, w repo.ProfileWriter) error {
		if p.Balance < amount {
			return fmt.Errorf("%w: balance %d, requested %d", models.ErrInsufficientBalance, p.Balance, amount)
		}
		now := s.now()
		p.Balance -= amount
		p.TotalSpent += amount
		if err := w.AppendTransaction(models.Transaction{
			TransactionID: models.NewTransactionID(now, models.DeductIDPrefix),
			UserID:        userID,
			Type:          models.TxnBalanceDeduction,
			Amount:        amount,
			Description:   description,
			CreatedAt:     now,
		}); err != nil {
			return err
		}
		out = *p
		return nil
	})
	if err != nil {
		return models.Profile{}, err
	}
	slog.Info("balance deducted", "user_id", userID, "amount", amount, "balance", out.Balance)
	return out, nil
}

func (s *BalanceService) Transactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.txns.ListByUser(ctx, userID, limit)
}

func (s *BalanceService) Contributions(ctx context.Context, userID string, limit int) ([]models.Contribution, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.contribs.ListByUser(ctx, userID, limit)
}
