package storage

import (
	"context"

	"gorm.io/gorm"

	"locshare/internal/models"
)

// LocationShareRepository stores immutable location shares. There is no
// update method on purpose.
type LocationShareRepository interface {
	Create(ctx context.Context, share *models.LocationShare) error
	GetByID(ctx context.Context, id uint) (*models.LocationShare, error)
	CountBySender(ctx context.Context, senderID uint) (int64, error)
}

type gormLocationShareRepository struct {
	db *gorm.DB
}

// NewGormLocationShareRepository creates a new GORM-based LocationShareRepository.
func NewGormLocationShareRepository(db *gorm.DB) LocationShareRepository {
	return &gormLocationShareRepository{db: db}
}

// Create inserts share and fills in its ID and CreatedAt.
func (r *gormLocationShareRepository) Create(ctx context.Context, share *models.LocationShare) error {
	return r.db.WithContext(ctx).Create(share).Error
}

// GetByID retrieves a share by ID, or gorm.ErrRecordNotFound.
func (r *gormLocationShareRepository) GetByID(ctx context.Context, id uint) (*models.LocationShare, error) {
	var share models.LocationShare
	err := r.db.WithContext(ctx).First(&share, id).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

// CountBySender counts the shares created by senderID.
func (r *gormLocationShareRepository) CountBySender(ctx context.Context, senderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LocationShare{}).
		Where("sender_id = ?", senderID).
		Count(&count).Error
	return count, err
}
