package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locshare/internal/config"
	"locshare/internal/models"
	"locshare/internal/storage"
	"locshare/internal/storage/sqlitetest"
)

func TestUserStatus(t *testing.T) {
	db := sqlitetest.NewDB(t)
	userRepo := storage.NewGormUserRepository(db)
	users := NewUserService(userRepo)
	authSvc := NewAuthService(userRepo, testAuthConfig, config.TokensConfig{})
	ctx := context.Background()

	_, alice, err := authSvc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	active, err := users.IsActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, users.SetStatus(ctx, alice.ID, models.UserStatusDisabled))
	active, err = users.IsActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, active)

	_, _, err = authSvc.Login(ctx, "alice@example.com", "secret1")
	require.ErrorIs(t, err, ErrAccountDisabled)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, users.SetStatus(ctx, alice.ID, models.UserStatusActive))
	_, _, err = authSvc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	assert.ErrorIs(t, users.SetStatus(ctx, alice.ID, "suspended"), ErrInvalidInput)
	assert.ErrorIs(t, users.SetStatus(ctx, 9999, models.UserStatusDisabled), ErrNotFound)

	active, err = users.IsActive(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, active)
}
