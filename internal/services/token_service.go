package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	appKafka "locshare/internal/kafka"
	"locshare/internal/models"
	"locshare/internal/storage"
)

const (
	MinTopUpAmount = 1
	MaxTopUpAmount = 100000
)

// TopUpResult is returned by a successful top-up.
type TopUpResult struct {
	AmountAdded int64 `json:"amountAdded"`
	NewBalance  int64 `json:"newBalance"`
}

// TokenService 令牌账本：查询余额、充值、以及原子地消费一个令牌。
type TokenService interface {
	Balance(ctx context.Context, userID uint) (int64, error)
	TopUp(ctx context.Context, userID uint, amount int64) (*TopUpResult, error)
	TryConsumeOne(ctx context.Context, userID uint) (int64, error)
	History(ctx context.Context, userID uint, limit int) ([]models.TokenTransaction, error)
}

type tokenService struct {
	db        *gorm.DB
	tokenRepo storage.TokenRepository
	events    *ledgerPublisher
}

// NewTokenService creates a TokenService. producer may be nil.
func NewTokenService(db *gorm.DB, tokenRepo storage.TokenRepository, producer appKafka.Producer, ledgerTopic string) TokenService {
	return &tokenService{
		db:        db,
		tokenRepo: tokenRepo,
		events:    newLedgerPublisher(producer, ledgerTopic),
	}
}

// Balance returns the current balance of userID.
func (s *tokenService) Balance(ctx context.Context, userID uint) (int64, error) {
	balance, err := s.tokenRepo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("查询令牌余额失败: %w", err)
	}
	return balance, nil
}

// TopUp adds amount to the balance and journals it in one transaction.
func (s *tokenService) TopUp(ctx context.Context, userID uint, amount int64) (*TopUpResult, error) {
	if amount < MinTopUpAmount || amount > MaxTopUpAmount {
		return nil, ErrInvalidAmount
	}

	var entry *models.TokenTransaction
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txTokenRepo := storage.NewGormTokenRepository(tx)

		newBalance, err := txTokenRepo.IncrementBalance(ctx, userID, amount)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("增加令牌余额失败: %w", err)
		}

		entry = &models.TokenTransaction{
			UserID:       userID,
			Type:         models.TokenTransactionTopUp,
			Amount:       amount,
			BalanceAfter: newBalance,
		}
		if err := txTokenRepo.RecordTransaction(ctx, entry); err != nil {
			return fmt.Errorf("写入令牌流水失败: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Printf("User %d topped up %d tokens, balance now %d", userID, amount, entry.BalanceAfter)
	s.events.publish(ctx, entry)
	return &TopUpResult{AmountAdded: amount, NewBalance: entry.BalanceAfter}, nil
}

// TryConsumeOne spends one token outside of any larger unit of work.
// Location sends do not call this; they debit inside their own transaction
// so the share and the debit commit together.
func (s *tokenService) TryConsumeOne(ctx context.Context, userID uint) (int64, error) {
	var entry *models.TokenTransaction
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txTokenRepo := storage.NewGormTokenRepository(tx)
		newBalance, err := debitOne(ctx, txTokenRepo, userID)
		if err != nil {
			return err
		}
		entry, err = journalConsumption(ctx, txTokenRepo, userID, newBalance, nil)
		return err
	})
	if txErr != nil {
		return 0, txErr
	}
	s.events.publish(ctx, entry)
	return entry.BalanceAfter, nil
}

// History returns the newest journal entries of userID.
func (s *tokenService) History(ctx context.Context, userID uint, limit int) ([]models.TokenTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	entries, err := s.tokenRepo.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("获取令牌流水失败: %w", err)
	}
	return entries, nil
}

// debitOne takes one token from userID through repo, which must be bound to
// the caller's transaction.
func debitOne(ctx context.Context, repo storage.TokenRepository, userID uint) (int64, error) {
	newBalance, err := repo.TryConsumeOne(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientBalance) {
			return 0, ErrInsufficientTokens
		}
		return 0, fmt.Errorf("扣减令牌失败: %w", err)
	}
	return newBalance, nil
}

// journalConsumption records a debit made by debitOne. shareID links the
// entry to the location share it paid for, if any.
func journalConsumption(ctx context.Context, repo storage.TokenRepository, userID uint, balanceAfter int64, shareID *uint) (*models.TokenTransaction, error) {
	entry := &models.TokenTransaction{
		UserID:          userID,
		Type:            models.TokenTransactionConsume,
		Amount:          -1,
		BalanceAfter:    balanceAfter,
		LocationShareID: shareID,
	}
	if err := repo.RecordTransaction(ctx, entry); err != nil {
		return nil, fmt.Errorf("写入令牌流水失败: %w", err)
	}
	return entry, nil
}
