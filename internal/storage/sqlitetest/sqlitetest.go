// Package sqlitetest opens throwaway in-memory databases with the production
// schema for package tests.
package sqlitetest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"locshare/internal/models"
	"locshare/internal/storage"
)

var seq atomic.Int64

// NewDB returns a migrated in-memory database. It is limited to one
// connection, so concurrent callers are serialised the way row locks would
// serialise them on PostgreSQL.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:locshare_test_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), storage.NewGormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, storage.AutoMigrateTables(db))
	return db
}

// CreateUser inserts an active user with the given balance.
func CreateUser(t testing.TB, db *gorm.DB, username string, balance int64) *models.User {
	t.Helper()

	user := &models.User{
		UID:           uuid.NewString(),
		Username:      username,
		Email:         fmt.Sprintf("%s@example.com", username),
		PasswordHash:  "x",
		Status:        models.UserStatusActive,
		TokensBalance: balance,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Befriend inserts a relation from owner to target with status.
func Befriend(t testing.TB, db *gorm.DB, owner, target *models.User, status models.FriendStatus) *models.FriendRelation {
	t.Helper()

	relation := &models.FriendRelation{UserID: owner.ID, FriendID: target.ID, Status: status}
	require.NoError(t, db.Create(relation).Error)
	return relation
}

// Balance reads the stored balance of user directly.
func Balance(t testing.TB, db *gorm.DB, user *models.User) int64 {
	t.Helper()

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	return fresh.TokensBalance
}
