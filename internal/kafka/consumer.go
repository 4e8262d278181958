package kafka

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"locshare/internal/config"
)

// Record is the part of a consumed Kafka message that handlers need.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes one record. A nil return commits the offset; an error
// leaves it uncommitted so the record is redelivered after a rebalance.
type Handler func(ctx context.Context, rec Record) error

// Consumer reads a set of topics as part of a consumer group.
type Consumer interface {
	Consume(ctx context.Context, topics []string, handler Handler) error
	Close()
}

type confluentConsumer struct {
	consumer *kafka.Consumer
	groupID  string
}

// NewConfluentConsumer creates a consumer in cfg.ConsumerGroup with manual commits.
func NewConfluentConsumer(cfg config.KafkaConfig) (Consumer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Brokers, ","),
		"group.id":           cfg.ConsumerGroup,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"security.protocol":  cfg.Protocol,
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	c, err := kafka.NewConsumer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer for group %s: %w", cfg.ConsumerGroup, err)
	}
	return &confluentConsumer{consumer: c, groupID: cfg.ConsumerGroup}, nil
}

// Consume blocks until ctx is canceled or a fatal Kafka error occurs.
func (c *confluentConsumer) Consume(ctx context.Context, topics []string, handler Handler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, c.groupID, err)
	}
	log.Printf("Kafka consumer started for GroupID: %s, Topics: %v", c.groupID, topics)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Context canceled for consumer group %s. Shutting down.", c.groupID)
			return ctx.Err()
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			rec := Record{
				Partition: e.TopicPartition.Partition,
				Offset:    int64(e.TopicPartition.Offset),
				Key:       e.Key,
				Value:     e.Value,
			}
			if e.TopicPartition.Topic != nil {
				rec.Topic = *e.TopicPartition.Topic
			}
			if err := handler(ctx, rec); err != nil {
				log.Printf("Error processing Kafka message for group %s (Topic: %s, Offset: %d): %v",
					c.groupID, rec.Topic, rec.Offset, err)
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				log.Printf("Failed to commit offset for group %s (Topic: %s, Offset: %d): %v",
					c.groupID, rec.Topic, rec.Offset, err)
			}
		case kafka.Error:
			log.Printf("Kafka consumer error for group %s: %v (Code: %d, Fatal: %t)", c.groupID, e, e.Code(), e.IsFatal())
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.Printf("Partitions assigned for group %s: %v", c.groupID, e.Partitions)
			_ = c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.Printf("Partitions revoked for group %s: %v", c.groupID, e.Partitions)
			_ = c.consumer.Unassign()
		}
	}
}

// Close closes the consumer.
func (c *confluentConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		log.Printf("Error closing Kafka consumer for group %s: %v", c.groupID, err)
	}
	c.consumer = nil
}
