package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	appKafka "locshare/internal/kafka"
	"locshare/internal/storage"
)

// ErrLedgerMismatch means an event disagrees with the journal row it names.
var ErrLedgerMismatch = errors.New("ledger event does not match journal")

// LedgerAuditor checks published ledger events against the token journal.
type LedgerAuditor struct {
	tokenRepo storage.TokenRepository
}

// NewLedgerAuditor creates a LedgerAuditor.
func NewLedgerAuditor(tokenRepo storage.TokenRepository) *LedgerAuditor {
	return &LedgerAuditor{tokenRepo: tokenRepo}
}

// Audit compares one event with the journal row it names. A missing or
// differing row yields an error wrapping ErrLedgerMismatch; any other error
// is a database failure.
func (a *LedgerAuditor) Audit(ctx context.Context, event LedgerEvent) error {
	entry, err := a.tokenRepo.GetTransaction(ctx, event.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: transaction %d not found", ErrLedgerMismatch, event.TransactionID)
		}
		return fmt.Errorf("查询令牌流水 %d 失败: %w", event.TransactionID, err)
	}
	if entry.UserID != event.UserID || entry.Amount != event.Amount || entry.BalanceAfter != event.BalanceAfter {
		return fmt.Errorf("%w: transaction %d has user=%d amount=%d balance=%d, event has user=%d amount=%d balance=%d",
			ErrLedgerMismatch, entry.ID, entry.UserID, entry.Amount, entry.BalanceAfter,
			event.UserID, event.Amount, event.BalanceAfter)
	}
	return nil
}

// HandleRecord is the appKafka.Handler for the ledger topic. It returns an
// error only when the record should be redelivered.
func (a *LedgerAuditor) HandleRecord(ctx context.Context, rec appKafka.Record) error {
	var event LedgerEvent
	if err := json.Unmarshal(rec.Value, &event); err != nil {
		log.Printf("Skipping undecodable ledger record (Topic: %s, Offset: %d): %v", rec.Topic, rec.Offset, err)
		return nil
	}

	err := a.Audit(ctx, event)
	switch {
	case err == nil:
		log.Printf("Ledger audit ok: %s tx=%d user=%d amount=%+d balance=%d", event.Type, event.TransactionID, event.UserID, event.Amount, event.BalanceAfter)
		return nil
	case errors.Is(err, ErrLedgerMismatch):
		log.Printf("Ledger audit MISMATCH (Offset: %d): %v", rec.Offset, err)
		return nil
	default:
		return err
	}
}
