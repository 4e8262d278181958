package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	appKafka "locshare/internal/kafka"
	"locshare/internal/models"
)

// LedgerEventType names a ledger change published after commit.
type LedgerEventType string

const (
	LedgerEventToppedUp LedgerEventType = "tokens.topped_up"
	LedgerEventConsumed LedgerEventType = "tokens.consumed"
)

// LedgerEvent is the Kafka payload for one committed journal entry.
type LedgerEvent struct {
	Type            LedgerEventType `json:"type"`
	TransactionID   uint            `json:"transactionId"`
	UserID          uint            `json:"userId"`
	Amount          int64           `json:"amount"`
	BalanceAfter    int64           `json:"balanceAfter"`
	LocationShareID *uint           `json:"locationShareId,omitempty"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

// ledgerPublisher announces committed journal entries. A nil producer
// disables publishing. Failures are logged, never returned: the database
// commit has already happened and the journal row is the source of truth.
type ledgerPublisher struct {
	producer appKafka.Producer
	topic    string
}

func newLedgerPublisher(producer appKafka.Producer, topic string) *ledgerPublisher {
	return &ledgerPublisher{producer: producer, topic: topic}
}

func (p *ledgerPublisher) publish(ctx context.Context, entry *models.TokenTransaction) {
	if p == nil || p.producer == nil || entry == nil {
		return
	}

	eventType := LedgerEventToppedUp
	if entry.Type == models.TokenTransactionConsume {
		eventType = LedgerEventConsumed
	}
	event := LedgerEvent{
		Type:            eventType,
		TransactionID:   entry.ID,
		UserID:          entry.UserID,
		Amount:          entry.Amount,
		BalanceAfter:    entry.BalanceAfter,
		LocationShareID: entry.LocationShareID,
		OccurredAt:      entry.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling ledger event for transaction %d: %v", entry.ID, err)
		return
	}

	// Keyed by user so one user's events stay ordered within a partition.
	key := []byte(strconv.FormatUint(uint64(entry.UserID), 10))
	if err := p.producer.Publish(ctx, p.topic, key, payload); err != nil {
		log.Printf("Error publishing ledger event %s for transaction %d to topic %s: %v", event.Type, entry.ID, p.topic, err)
	}
}
