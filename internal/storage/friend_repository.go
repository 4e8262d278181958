package storage

import (
	"context"

	"gorm.io/gorm"

	"locshare/internal/models"
)

// FriendRepository defines data access for directed friend relations.
type FriendRepository interface {
	Create(ctx context.Context, relation *models.FriendRelation) error
	FindByPair(ctx context.Context, ownerID, friendID uint) (*models.FriendRelation, error)
	GetOwnedByID(ctx context.Context, ownerID, relationID uint) (*models.FriendRelation, error)
	ListWithUsers(ctx context.Context, ownerID uint) ([]models.FriendWithUser, error)
	UpdateStatus(ctx context.Context, relationID uint, status models.FriendStatus) error
	Delete(ctx context.Context, relationID uint) error
	IsActive(ctx context.Context, ownerID, friendID uint) (bool, error)
}

type gormFriendRepository struct {
	db *gorm.DB
}

// NewGormFriendRepository creates a new GORM-based FriendRepository.
func NewGormFriendRepository(db *gorm.DB) FriendRepository {
	return &gormFriendRepository{db: db}
}

// Create inserts relation. A second row for the same (owner, friend) pair
// fails with gorm.ErrDuplicatedKey.
func (r *gormFriendRepository) Create(ctx context.Context, relation *models.FriendRelation) error {
	return r.db.WithContext(ctx).Create(relation).Error
}

// FindByPair returns the relation from ownerID to friendID, or gorm.ErrRecordNotFound.
func (r *gormFriendRepository) FindByPair(ctx context.Context, ownerID, friendID uint) (*models.FriendRelation, error) {
	var relation models.FriendRelation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", ownerID, friendID).
		First(&relation).Error
	if err != nil {
		return nil, err
	}
	return &relation, nil
}

// GetOwnedByID returns the relation only if ownerID owns it.
func (r *gormFriendRepository) GetOwnedByID(ctx context.Context, ownerID, relationID uint) (*models.FriendRelation, error) {
	var relation models.FriendRelation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", relationID, ownerID).
		First(&relation).Error
	if err != nil {
		return nil, err
	}
	return &relation, nil
}

// ListWithUsers joins each relation owned by ownerID with the target user.
func (r *gormFriendRepository) ListWithUsers(ctx context.Context, ownerID uint) ([]models.FriendWithUser, error) {
	friends := []models.FriendWithUser{}
	err := r.db.WithContext(ctx).
		Model(&models.FriendRelation{}).
		Select("friends.id, friends.friend_id, friends.status, users.uid, users.username, users.email, users.avatar_url").
		Joins("JOIN users ON users.id = friends.friend_id AND users.deleted_at IS NULL").
		Where("friends.user_id = ? AND friends.deleted_at IS NULL", ownerID).
		Order("friends.id ASC").
		Scan(&friends).Error
	if err != nil {
		return nil, err
	}
	return friends, nil
}

// UpdateStatus sets the status of a single relation.
func (r *gormFriendRepository) UpdateStatus(ctx context.Context, relationID uint, status models.FriendStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.FriendRelation{}).
		Where("id = ?", relationID).
		Update("status", status)
	return result.Error
}

// Delete removes the relation permanently so the pair can be added again later.
func (r *gormFriendRepository) Delete(ctx context.Context, relationID uint) error {
	result := r.db.WithContext(ctx).Unscoped().Delete(&models.FriendRelation{}, relationID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsActive reports whether ownerID holds an active relation towards friendID.
func (r *gormFriendRepository) IsActive(ctx context.Context, ownerID, friendID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FriendRelation{}).
		Where("user_id = ? AND friend_id = ? AND status = ?", ownerID, friendID, models.FriendStatusActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
