package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"locshare/internal/models"
	"locshare/internal/storage/sqlitetest"
)

func strPtr(s string) *string { return &s }

func TestSendRequiresActiveOutboundRelation(t *testing.T) {
	tests := []struct {
		name     string
		relation func(t *testing.T, env *testEnv, alice, bob *models.User)
	}{
		{
			name:     "no relation",
			relation: func(*testing.T, *testEnv, *models.User, *models.User) {},
		},
		{
			name: "blocked relation",
			relation: func(t *testing.T, env *testEnv, alice, bob *models.User) {
				sqlitetest.Befriend(t, env.db, alice, bob, models.FriendStatusBlocked)
			},
		},
		{
			name: "only the receiver added the sender",
			relation: func(t *testing.T, env *testEnv, alice, bob *models.User) {
				sqlitetest.Befriend(t, env.db, bob, alice, models.FriendStatusActive)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			alice := sqlitetest.CreateUser(t, env.db, "alice", 5)
			bob := sqlitetest.CreateUser(t, env.db, "bob", 0)
			tt.relation(t, env, alice, bob)

			_, err := env.locations.Send(context.Background(), alice.ID, SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "c"})
			require.ErrorIs(t, err, ErrForbidden)
			assert.ErrorIs(t, err, ErrNotActiveFriend)

			assert.Equal(t, int64(5), sqlitetest.Balance(t, env.db, alice))
			count, err := env.shareRepo.CountBySender(context.Background(), alice.ID)
			require.NoError(t, err)
			assert.Zero(t, count)
			assert.Empty(t, env.producer.published())
		})
	}
}

func TestSendToSelf(t *testing.T) {
	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 5)

	_, err := env.locations.Send(context.Background(), alice.ID, SendLocationInput{ReceiverUID: alice.UID, Ciphertext: "c"})
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, int64(5), sqlitetest.Balance(t, env.db, alice))
}

func TestSendValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 5)
	bob := sqlitetest.CreateUser(t, env.db, "bob", 0)
	sqlitetest.Befriend(t, env.db, alice, bob, models.FriendStatusActive)

	tests := []struct {
		name  string
		input SendLocationInput
		kind  error
	}{
		{"missing receiver", SendLocationInput{Ciphertext: "c"}, ErrInvalidInput},
		{"missing ciphertext", SendLocationInput{ReceiverUID: bob.UID}, ErrInvalidInput},
		{"scalar meta", SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "c", Meta: json.RawMessage(`42`)}, ErrInvalidInput},
		{"broken meta", SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "c", Meta: json.RawMessage(`{"a":`)}, ErrInvalidInput},
		{"unknown receiver", SendLocationInput{ReceiverUID: "no-such-uid", Ciphertext: "c"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.locations.Send(context.Background(), alice.ID, tt.input)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Equal(t, int64(5), sqlitetest.Balance(t, env.db, alice))
}

func TestSendWithZeroBalance(t *testing.T) {
	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 0)
	bob := sqlitetest.CreateUser(t, env.db, "bob", 0)
	sqlitetest.Befriend(t, env.db, alice, bob, models.FriendStatusActive)

	_, err := env.locations.Send(context.Background(), alice.ID, SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "c"})
	require.ErrorIs(t, err, ErrPaymentRequired)

	assert.Equal(t, int64(0), sqlitetest.Balance(t, env.db, alice))
	count, err := env.shareRepo.CountBySender(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	history, err := env.tokens.History(context.Background(), alice.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSendRollsBackWhenShareInsertFails(t *testing.T) {
	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 3)
	bob := sqlitetest.CreateUser(t, env.db, "bob", 0)
	sqlitetest.Befriend(t, env.db, alice, bob, models.FriendStatusActive)

	// 扣费已经执行，之后的分享插入失败
	require.NoError(t, env.db.Callback().Create().Before("gorm:create").Register("test:fail_location_shares", func(db *gorm.DB) {
		if db.Statement.Table == "location_shares" {
			db.AddError(errors.New("disk full"))
		}
	}))

	_, err := env.locations.Send(context.Background(), alice.ID, SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "c"})
	require.Error(t, err)
	for _, kind := range []error{ErrNotFound, ErrInvalidOperation, ErrForbidden, ErrPaymentRequired, ErrInvalidInput, ErrUnauthenticated, ErrConflict} {
		assert.NotErrorIs(t, err, kind)
	}

	assert.Equal(t, int64(3), sqlitetest.Balance(t, env.db, alice))
	count, err := env.shareRepo.CountBySender(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	history, err := env.tokens.History(context.Background(), alice.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, env.producer.published())
}

func TestConcurrentSendsSpendOneTokenOnce(t *testing.T) {
	const senders = 8

	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 1)
	receivers := make([]*models.User, senders)
	for i := range receivers {
		receivers[i] = sqlitetest.CreateUser(t, env.db, fmt.Sprintf("friend%d", i), 0)
		sqlitetest.Befriend(t, env.db, alice, receivers[i], models.FriendStatusActive)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		declined  int
		other     []error
	)
	for _, receiver := range receivers {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := env.locations.Send(context.Background(), alice.ID, SendLocationInput{ReceiverUID: uid, Ciphertext: "c"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrPaymentRequired):
				declined++
			default:
				other = append(other, err)
			}
		}(receiver.UID)
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, senders-1, declined)
	assert.Equal(t, int64(0), sqlitetest.Balance(t, env.db, alice))

	count, err := env.shareRepo.CountBySender(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestShareScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := sqlitetest.CreateUser(t, env.db, "alice", 0)
	bob := sqlitetest.CreateUser(t, env.db, "bob", 0)
	carol := sqlitetest.CreateUser(t, env.db, "carol", 0)

	topUp, err := env.tokens.TopUp(ctx, alice.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), topUp.NewBalance)

	relation, err := env.friends.AddFriend(ctx, alice.ID, bob.UID)
	require.NoError(t, err)

	first, err := env.locations.Send(ctx, alice.ID, SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "first"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TokensBalance)

	require.NoError(t, env.friends.Block(ctx, alice.ID, relation.ID))
	_, err = env.locations.Send(ctx, alice.ID, SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "blocked"})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.friends.Unblock(ctx, alice.ID, relation.ID))
	second, err := env.locations.Send(ctx, alice.ID, SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "second"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.TokensBalance)

	_, err = env.locations.Send(ctx, alice.ID, SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "third"})
	require.ErrorIs(t, err, ErrPaymentRequired)

	view, err := env.locations.Show(ctx, bob.ID, second.ShareID)
	require.NoError(t, err)
	assert.Equal(t, "second", view.Ciphertext)
	assert.Equal(t, alice.UID, view.Sender.UID)
	assert.Equal(t, bob.UID, view.Receiver.UID)

	_, err = env.locations.Show(ctx, carol.ID, second.ShareID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.locations.Show(ctx, alice.ID, second.ShareID+100)
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := env.tokens.History(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.TokenTransactionConsume, history[0].Type)
	require.NotNil(t, history[0].LocationShareID)
	assert.Equal(t, second.ShareID, *history[0].LocationShareID)
	assert.Equal(t, models.TokenTransactionTopUp, history[2].Type)

	published := env.producer.published()
	require.Len(t, published, 3)
	var last LedgerEvent
	require.NoError(t, json.Unmarshal(published[2].payload, &last))
	assert.Equal(t, LedgerEventConsumed, last.Type)
	assert.Equal(t, int64(-1), last.Amount)
	assert.Equal(t, testLedgerTopic, published[2].topic)
}

func TestSharePayloadRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := sqlitetest.CreateUser(t, env.db, "alice", 3)
	bob := sqlitetest.CreateUser(t, env.db, "bob", 0)
	sqlitetest.Befriend(t, env.db, alice, bob, models.FriendStatusActive)

	tests := []struct {
		name  string
		input SendLocationInput
	}{
		{
			name: "all fields",
			input: SendLocationInput{
				ReceiverUID: bob.UID,
				Ciphertext:  "AAEC/w==.é位置",
				IV:          strPtr("aXYtYnl0ZXM="),
				Meta:        json.RawMessage(`{ "alg" : "AES-GCM", "v":[1, 2.50] }`),
			},
		},
		{
			name:  "ciphertext only",
			input: SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "opaque"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.locations.Send(ctx, alice.ID, tt.input)
			require.NoError(t, err)

			view, err := env.locations.Show(ctx, alice.ID, result.ShareID)
			require.NoError(t, err)
			assert.Equal(t, tt.input.Ciphertext, view.Ciphertext)
			assert.Equal(t, tt.input.IV, view.IV)
			assert.Equal(t, string(tt.input.Meta), string(view.Meta))
			assert.Nil(t, view.ExpiresAt)
		})
	}
}

func TestShareTTLSetsExpiry(t *testing.T) {
	env := newTestEnv(t)
	alice := sqlitetest.CreateUser(t, env.db, "alice", 1)
	bob := sqlitetest.CreateUser(t, env.db, "bob", 0)
	sqlitetest.Befriend(t, env.db, alice, bob, models.FriendStatusActive)

	userRepo, friendRepo := env.users.(*userService).userRepo, env.friends.(*friendService).friendRepo
	svc := NewLocationService(env.db, userRepo, friendRepo, env.shareRepo, nil, "", time.Hour).(*locationService)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	result, err := svc.Send(context.Background(), alice.ID, SendLocationInput{ReceiverUID: bob.UID, Ciphertext: "c"})
	require.NoError(t, err)

	share, err := env.shareRepo.GetByID(context.Background(), result.ShareID)
	require.NoError(t, err)
	require.NotNil(t, share.ExpiresAt)
	assert.True(t, share.ExpiresAt.Equal(fixed.Add(time.Hour)))
}
