package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locshare/internal/models"
	"locshare/internal/storage/sqlitetest"
)

func TestTopUpBounds(t *testing.T) {
	tests := []struct {
		amount  int64
		wantErr bool
	}{
		{amount: 0, wantErr: true},
		{amount: -5, wantErr: true},
		{amount: 1},
		{amount: MaxTopUpAmount},
		{amount: MaxTopUpAmount + 1, wantErr: true},
	}

	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 10)
	expected := int64(10)
	for _, tt := range tests {
		result, err := env.tokens.TopUp(context.Background(), alice.ID, tt.amount)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidInput, "amount %d", tt.amount)
			assert.Equal(t, expected, sqlitetest.Balance(t, env.db, alice))
			continue
		}
		require.NoError(t, err, "amount %d", tt.amount)
		expected += tt.amount
		assert.Equal(t, tt.amount, result.AmountAdded)
		assert.Equal(t, expected, result.NewBalance)
	}

	// 总额没有上限
	_, err := env.tokens.TopUp(context.Background(), alice.ID, MaxTopUpAmount)
	require.NoError(t, err)
	balance, err := env.tokens.Balance(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, expected+MaxTopUpAmount, balance)
}

func TestTopUpUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.tokens.TopUp(context.Background(), 999, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.tokens.Balance(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenTryConsumeOne(t *testing.T) {
	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 1)

	balance, err := env.tokens.TryConsumeOne(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, err = env.tokens.TryConsumeOne(context.Background(), alice.ID)
	assert.ErrorIs(t, err, ErrPaymentRequired)

	history, err := env.tokens.History(context.Background(), alice.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].LocationShareID)
}

func TestTopUpPublishesLedgerEvent(t *testing.T) {
	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 0)

	_, err := env.tokens.TopUp(context.Background(), alice.ID, 7)
	require.NoError(t, err)

	published := env.producer.published()
	require.Len(t, published, 1)
	assert.Equal(t, strconv.FormatUint(uint64(alice.ID), 10), string(published[0].key))

	var event LedgerEvent
	require.NoError(t, json.Unmarshal(published[0].payload, &event))
	assert.Equal(t, LedgerEventToppedUp, event.Type)
	assert.Equal(t, int64(7), event.Amount)
	assert.Equal(t, int64(7), event.BalanceAfter)
	assert.NotZero(t, event.TransactionID)
}

func TestPublishFailureDoesNotFailTopUp(t *testing.T) {
	env := newTestEnv(t)
	env.producer.err = errors.New("broker down")
	alice := sqlitetest.CreateUser(t, env.db, "alice", 0)

	result, err := env.tokens.TopUp(context.Background(), alice.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.NewBalance)

	history, err := env.tokens.History(context.Background(), alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TokenTransactionTopUp, history[0].Type)
}
