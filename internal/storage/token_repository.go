package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"locshare/internal/models"
)

// ErrInsufficientBalance is returned by TryConsumeOne when the balance is not positive.
var ErrInsufficientBalance = errors.New("insufficient token balance")

// TokenRepository is the persistence side of the token ledger. Balance
// changes are single conditional UPDATE statements; callers that need the
// change to be atomic with other writes pass a transaction-scoped *gorm.DB
// to NewGormTokenRepository.
type TokenRepository interface {
	GetBalance(ctx context.Context, userID uint) (int64, error)
	IncrementBalance(ctx context.Context, userID uint, amount int64) (int64, error)
	TryConsumeOne(ctx context.Context, userID uint) (int64, error)
	RecordTransaction(ctx context.Context, entry *models.TokenTransaction) error
	ListTransactions(ctx context.Context, userID uint, limit int) ([]models.TokenTransaction, error)
	GetTransaction(ctx context.Context, id uint) (*models.TokenTransaction, error)
}

type gormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository creates a new GORM-based TokenRepository.
func NewGormTokenRepository(db *gorm.DB) TokenRepository {
	return &gormTokenRepository{db: db}
}

// GetBalance returns the stored balance, or gorm.ErrRecordNotFound.
func (r *gormTokenRepository) GetBalance(ctx context.Context, userID uint) (int64, error) {
	var balance int64
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Select("tokens_balance").
		Scan(&balance)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return balance, nil
}

// IncrementBalance adds amount in one UPDATE and returns the new balance.
// The read-back happens on the same handle, so inside a transaction it sees
// the row this statement just locked.
func (r *gormTokenRepository) IncrementBalance(ctx context.Context, userID uint, amount int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("tokens_balance", gorm.Expr("tokens_balance + ?", amount))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return r.GetBalance(ctx, userID)
}

// TryConsumeOne decrements the balance by one only if it is positive. The
// check and the write are the same statement; zero affected rows means the
// balance was already exhausted (or the user does not exist).
func (r *gormTokenRepository) TryConsumeOne(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND tokens_balance > 0", userID).
		Update("tokens_balance", gorm.Expr("tokens_balance - 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrInsufficientBalance
	}
	return r.GetBalance(ctx, userID)
}

// RecordTransaction appends a journal entry.
func (r *gormTokenRepository) RecordTransaction(ctx context.Context, entry *models.TokenTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListTransactions returns the newest entries first.
func (r *gormTokenRepository) ListTransactions(ctx context.Context, userID uint, limit int) ([]models.TokenTransaction, error) {
	entries := []models.TokenTransaction{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetTransaction 根据ID获取流水记录。
func (r *gormTokenRepository) GetTransaction(ctx context.Context, id uint) (*models.TokenTransaction, error) {
	var entry models.TokenTransaction
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
