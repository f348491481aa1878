package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/starpool/starpool-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.balance.GetOrCreateProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
	assert.Zero(t, p.Balance)
	assert.Zero(t, p.TotalContributed)
	assert.Zero(t, p.PoolsJoined)

	again, err := env.balance.GetOrCreateProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt, again.CreatedAt)

	_, err = env.balance.GetOrCreateProfile(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAddBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.balance.AddBalance(ctx, "alice", 100, "")
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Balance)

	p, err = env.balance.AddBalance(ctx, "alice", 50, "birthday gift")
	require.NoError(t, err)
	assert.Equal(t, int64(150), p.Balance)

	txns, err := env.balance.Transactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, models.TxnBalanceAddition, txns[0].Type)
	assert.Equal(t, "birthday gift", txns[0].Description)
	assert.Equal(t, "Balance addition", txns[1].Description) // default
	assert.True(t, strings.HasPrefix(txns[0].TransactionID, models.AddIDPrefix), txns[0].TransactionID)
}

func TestDeductBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.balance.AddBalance(ctx, "alice", 100, "")
	require.NoError(t, err)

	p, err := env.balance.DeductBalance(ctx, "alice", 30, "merch order")
	require.NoError(t, err)
	assert.Equal(t, int64(70), p.Balance)
	assert.Equal(t, int64(30), p.TotalSpent)

	txns, err := env.balance.Transactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, models.TxnBalanceDeduction, txns[0].Type)
	assert.True(t, strings.HasPrefix(txns[0].TransactionID, models.DeductIDPrefix), txns[0].TransactionID)

	t.Run("insufficient balance writes nothing", func(t *testing.T) {
		_, err := env.balance.DeductBalance(ctx, "alice", 100, "")
		assert.ErrorIs(t, err, models.ErrInsufficientBalance)

		got, err := env.balance.GetOrCreateProfile(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(70), got.Balance)

		txns, err := env.balance.Transactions(ctx, "alice", 10)
		require.NoError(t, err)
		assert.Len(t, txns, 2) // failed deduction left no ledger entry
	})
}

func TestBalanceValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -5} {
		_, err := env.balance.AddBalance(ctx, "alice", amount, "")
		assert.ErrorIs(t, err, models.ErrValidation)
		_, err = env.balance.DeductBalance(ctx, "alice", amount, "")
		assert.ErrorIs(t, err, models.ErrValidation)
	}
	_, err := env.balance.AddBalance(ctx, "", 10, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTransactionsDefaultLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := env.balance.AddBalance(ctx, "alice", 1, "")
		require.NoError(t, err)
	}

	txns, err := env.balance.Transactions(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, txns, DefaultListLimit)
}

func TestConcurrentBalanceAdds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.balance.AddBalance(ctx, "alice", 5, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := env.balance.GetOrCreateProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Balance)

	txns, err := env.balance.Transactions(ctx, "alice", 50)
	require.NoError(t, err)
	assert.Len(t, txns, 20)
}
