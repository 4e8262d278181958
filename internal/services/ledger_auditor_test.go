package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appKafka "locshare/internal/kafka"
	"locshare/internal/storage"
	"locshare/internal/storage/sqlitetest"
)

func TestLedgerAuditor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := sqlitetest.CreateUser(t, env.db, "alice", 0)
	_, err := env.tokens.TopUp(ctx, alice.ID, 4)
	require.NoError(t, err)

	published := env.producer.published()
	require.Len(t, published, 1)
	var event LedgerEvent
	require.NoError(t, json.Unmarshal(published[0].payload, &event))

	auditor := NewLedgerAuditor(storage.NewGormTokenRepository(env.db))
	require.NoError(t, auditor.Audit(ctx, event))

	tampered := event
	tampered.BalanceAfter = 400
	assert.ErrorIs(t, auditor.Audit(ctx, tampered), ErrLedgerMismatch)

	missing := event
	missing.TransactionID = 999
	assert.ErrorIs(t, auditor.Audit(ctx, missing), ErrLedgerMismatch)

	// 不匹配与无法解析的记录都会被确认，不会重投
	payload, err := json.Marshal(tampered)
	require.NoError(t, err)
	assert.NoError(t, auditor.HandleRecord(ctx, appKafka.Record{Value: payload}))
	assert.NoError(t, auditor.HandleRecord(ctx, appKafka.Record{Value: []byte("not json")}))
	assert.NoError(t, auditor.HandleRecord(ctx, appKafka.Record{Value: published[0].payload}))
}
