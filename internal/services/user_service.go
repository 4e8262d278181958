package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"locshare/internal/models"
	"locshare/internal/storage"
)

// UserService is the user directory: profile lookups by internal or public id.
type UserService interface {
	GetUserProfile(ctx context.Context, userID uint) (*models.User, error)
	FindByPublicID(ctx context.Context, uid string) (*models.User, error)
	// IsActive reports whether userID names an existing, non-disabled account.
	IsActive(ctx context.Context, userID uint) (bool, error)
	SetStatus(ctx context.Context, userID uint, status models.UserStatus) error
}

// userService 是 UserService 的实现。
type userService struct {
	userRepo storage.UserRepository
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo storage.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetUserProfile 获取用户资料，清除密码哈希。
func (s *userService) GetUserProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户 %d 失败: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// FindByPublicID resolves a public identifier to a user.
func (s *userService) FindByPublicID(ctx context.Context, uid string) (*models.User, error) {
	return findUserByUID(ctx, s.userRepo, uid, ErrUserNotFound)
}

// IsActive 用于鉴权中间件：停用或不存在的账号持有的令牌不再有效。
func (s *userService) IsActive(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("获取用户 %d 失败: %w", userID, err)
	}
	return user.Status != models.UserStatusDisabled, nil
}

// SetStatus enables or disables an account.
func (s *userService) SetStatus(ctx context.Context, userID uint, status models.UserStatus) error {
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return ErrInvalidUserStatus
	}
	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("更新用户 %d 状态失败: %w", userID, err)
	}
	return nil
}

// findUserByUID maps a missing row to notFound so each caller can report
// which party was missing.
func findUserByUID(ctx context.Context, repo storage.UserRepository, uid string, notFound error) (*models.User, error) {
	if uid == "" {
		return nil, notFound
	}
	user, err := repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("查找用户 %s 失败: %w", uid, err)
	}
	return user, nil
}
