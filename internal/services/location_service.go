package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	appKafka "locshare/internal/kafka"
	"locshare/internal/models"
	"locshare/internal/storage"
)

// SendLocationInput is one encrypted location addressed to a friend.
// Ciphertext, IV and Meta are opaque and stored as given.
type SendLocationInput struct {
	ReceiverUID string
	Ciphertext  string
	IV          *string
	Meta        json.RawMessage
}

// SendLocationResult is returned by a successful send.
type SendLocationResult struct {
	ShareID       uint  `json:"shareId"`
	TokensBalance int64 `json:"tokensBalance"`
}

// LocationService 位置分享编排：好友校验、令牌扣减与分享记录创建。
type LocationService interface {
	Send(ctx context.Context, senderID uint, input SendLocationInput) (*SendLocationResult, error)
	Show(ctx context.Context, requesterID, shareID uint) (*models.LocationShareView, error)
}

type locationService struct {
	db         *gorm.DB
	userRepo   storage.UserRepository
	friendRepo storage.FriendRepository
	shareRepo  storage.LocationShareRepository
	events     *ledgerPublisher
	shareTTL   time.Duration
	now        func() time.Time
}

// NewLocationService creates a LocationService. producer may be nil; a zero
// shareTTL leaves expires_at empty.
func NewLocationService(
	db *gorm.DB,
	userRepo storage.UserRepository,
	friendRepo storage.FriendRepository,
	shareRepo storage.LocationShareRepository,
	producer appKafka.Producer,
	ledgerTopic string,
	shareTTL time.Duration,
) LocationService {
	return &locationService{
		db:         db,
		userRepo:   userRepo,
		friendRepo: friendRepo,
		shareRepo:  shareRepo,
		events:     newLedgerPublisher(producer, ledgerTopic),
		shareTTL:   shareTTL,
		now:        time.Now,
	}
}

// Send delivers an encrypted location from senderID to input.ReceiverUID.
//
// Checks run in a fixed order and the first failure ends the attempt:
// input, receiver lookup, self-send, active relation sender->receiver, then
// the token debit. The friend check precedes the debit so a rejected send is
// free. The debit, the share row and the journal entry commit in one
// transaction; if any of them fails nothing is kept.
func (s *locationService) Send(ctx context.Context, senderID uint, input SendLocationInput) (*SendLocationResult, error) {
	meta, err := validateSendInput(input)
	if err != nil {
		return nil, err
	}

	receiver, err := findUserByUID(ctx, s.userRepo, input.ReceiverUID, ErrReceiverNotFound)
	if err != nil {
		return nil, err
	}
	if receiver.ID == senderID {
		return nil, ErrSelfShare
	}

	// Only the sender's outbound relation counts; the reverse edge is irrelevant.
	active, err := s.friendRepo.IsActive(ctx, senderID, receiver.ID)
	if err != nil {
		return nil, fmt.Errorf("检查好友关系时出错: %w", err)
	}
	if !active {
		return nil, ErrNotActiveFriend
	}

	share := &models.LocationShare{
		SenderID:         senderID,
		ReceiverID:       receiver.ID,
		EncryptedPayload: input.Ciphertext,
		IV:               input.IV,
	}
	if meta != nil {
		metaText := string(meta)
		share.Meta = &metaText
	}
	if s.shareTTL > 0 {
		expiresAt := s.now().Add(s.shareTTL)
		share.ExpiresAt = &expiresAt
	}

	var entry *models.TokenTransaction
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txTokenRepo := storage.NewGormTokenRepository(tx)
		txShareRepo := storage.NewGormLocationShareRepository(tx)

		newBalance, err := debitOne(ctx, txTokenRepo, senderID)
		if err != nil {
			return err
		}
		if err := txShareRepo.Create(ctx, share); err != nil {
			return fmt.Errorf("创建位置分享失败: %w", err)
		}
		entry, err = journalConsumption(ctx, txTokenRepo, senderID, newBalance, &share.ID)
		return err
	})
	if txErr != nil {
		if !errors.Is(txErr, ErrPaymentRequired) {
			log.Printf("Location send %d -> %d rolled back: %v", senderID, receiver.ID, txErr)
		}
		return nil, txErr
	}

	log.Printf("Location share %d sent %d -> %d, sender balance %d", share.ID, senderID, receiver.ID, entry.BalanceAfter)
	s.events.publish(ctx, entry)
	return &SendLocationResult{ShareID: share.ID, TokensBalance: entry.BalanceAfter}, nil
}

// Show returns a share to its sender or receiver. The payload is returned
// exactly as stored.
func (s *locationService) Show(ctx context.Context, requesterID, shareID uint) (*models.LocationShareView, error) {
	share, err := s.shareRepo.GetByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("检索位置分享失败: %w", err)
	}
	if share.SenderID != requesterID && share.ReceiverID != requesterID {
		return nil, ErrNotShareParty
	}

	parties, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, []uint{share.SenderID, share.ReceiverID})
	if err != nil {
		return nil, fmt.Errorf("获取分享双方信息失败: %w", err)
	}
	view := &models.LocationShareView{
		ID:         share.ID,
		Ciphertext: share.EncryptedPayload,
		IV:         share.IV,
		Meta:       share.MetaJSON(),
		CreatedAt:  share.CreatedAt,
		ExpiresAt:  share.ExpiresAt,
	}
	for _, p := range parties {
		switch p.ID {
		case share.SenderID:
			view.Sender = p
		case share.ReceiverID:
			view.Receiver = p
		}
	}
	return view, nil
}

// validateSendInput checks the required fields and returns meta normalised
// to nil when absent or JSON null. Meta must otherwise be an object or array.
func validateSendInput(input SendLocationInput) (json.RawMessage, error) {
	if input.ReceiverUID == "" {
		return nil, ErrMissingReceiver
	}
	if input.Ciphertext == "" {
		return nil, ErrMissingCiphertext
	}

	trimmed := bytes.TrimSpace(input.Meta)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if (trimmed[0] != '{' && trimmed[0] != '[') || !json.Valid(trimmed) {
		return nil, ErrInvalidMeta
	}
	return input.Meta, nil
}
