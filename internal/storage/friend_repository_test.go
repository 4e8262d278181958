package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"locshare/internal/models"
	"locshare/internal/storage"
	"locshare/internal/storage/sqlitetest"
)

func TestFriendPairIsUnique(t *testing.T) {
	db := sqlitetest.NewDB(t)
	repo := storage.NewGormFriendRepository(db)
	ctx := context.Background()
	alice := sqlitetest.CreateUser(t, db, "alice", 0)
	bob := sqlitetest.CreateUser(t, db, "bob", 0)

	require.NoError(t, repo.Create(ctx, &models.FriendRelation{UserID: alice.ID, FriendID: bob.ID, Status: models.FriendStatusActive}))
	err := repo.Create(ctx, &models.FriendRelation{UserID: alice.ID, FriendID: bob.ID, Status: models.FriendStatusActive})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// 反方向是独立的关系
	require.NoError(t, repo.Create(ctx, &models.FriendRelation{UserID: bob.ID, FriendID: alice.ID, Status: models.FriendStatusActive}))
}

func TestIsActiveFollowsStatusAndDirection(t *testing.T) {
	db := sqlitetest.NewDB(t)
	repo := storage.NewGormFriendRepository(db)
	ctx := context.Background()
	alice := sqlitetest.CreateUser(t, db, "alice", 0)
	bob := sqlitetest.CreateUser(t, db, "bob", 0)
	relation := sqlitetest.Befriend(t, db, alice, bob, models.FriendStatusActive)

	active, err := repo.IsActive(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = repo.IsActive(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, repo.UpdateStatus(ctx, relation.ID, models.FriendStatusBlocked))
	active, err = repo.IsActive(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestListWithUsersAndDelete(t *testing.T) {
	db := sqlitetest.NewDB(t)
	repo := storage.NewGormFriendRepository(db)
	ctx := context.Background()
	alice := sqlitetest.CreateUser(t, db, "alice", 0)
	bob := sqlitetest.CreateUser(t, db, "bob", 0)
	carol := sqlitetest.CreateUser(t, db, "carol", 0)
	first := sqlitetest.Befriend(t, db, alice, bob, models.FriendStatusActive)
	second := sqlitetest.Befriend(t, db, alice, carol, models.FriendStatusBlocked)
	sqlitetest.Befriend(t, db, bob, carol, models.FriendStatusActive)

	friends, err := repo.ListWithUsers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, first.ID, friends[0].ID)
	assert.Equal(t, bob.UID, friends[0].UID)
	assert.Equal(t, "bob@example.com", friends[0].Email)
	assert.Equal(t, models.FriendStatusBlocked, friends[1].Status)

	_, err = repo.GetOwnedByID(ctx, bob.ID, first.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, second.ID))
	assert.ErrorIs(t, repo.Delete(ctx, second.ID), gorm.ErrRecordNotFound)

	// 硬删除后可以重新添加
	require.NoError(t, repo.Create(ctx, &models.FriendRelation{UserID: alice.ID, FriendID: carol.ID, Status: models.FriendStatusActive}))
}
