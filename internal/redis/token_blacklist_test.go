package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTokenBlacklist(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	blacklist := NewRedisTokenBlacklist(client)
	ctx := context.Background()

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, blacklist.Add(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err = blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(blacklistKeyPrefix+"jti-1"))

	// 过期后自动移除
	mr.FastForward(2 * time.Minute)
	revoked, err = blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	// 已过期的令牌不写入
	require.NoError(t, blacklist.Add(ctx, "jti-2", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(blacklistKeyPrefix+"jti-2"))
}

func TestRedisTokenBlacklistUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisTokenBlacklist(client).IsBlacklisted(context.Background(), "jti")
	assert.Error(t, err)
}
