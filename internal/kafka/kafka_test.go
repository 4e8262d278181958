package kafka

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locshare/internal/config"
)

func TestPublishAndConsume(t *testing.T) {
	cluster, err := kafka.NewMockCluster(1)
	require.NoError(t, err)
	defer cluster.Close()

	const topic = "ledger-roundtrip"
	require.NoError(t, cluster.CreateTopic(topic, 1, 1))

	cfg := config.KafkaConfig{
		Enabled:       true,
		Brokers:       strings.Split(cluster.BootstrapServers(), ","),
		ClientID:      "locshare-test",
		LedgerTopic:   topic,
		ConsumerGroup: "locshare-test-group",
		Protocol:      "plaintext",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer, err := NewConfluentProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, producer.Publish(ctx, topic, []byte("7"), []byte(`{"type":"tokens.consumed"}`)))

	consumer, err := NewConfluentConsumer(cfg)
	require.NoError(t, err)
	defer consumer.Close()

	var got Record
	consumeCtx, stop := context.WithCancel(ctx)
	err = consumer.Consume(consumeCtx, []string{topic}, func(_ context.Context, rec Record) error {
		got = rec
		stop()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, topic, got.Topic)
	assert.Equal(t, "7", string(got.Key))
	assert.JSONEq(t, `{"type":"tokens.consumed"}`, string(got.Value))
}

func TestConsumeRequiresTopics(t *testing.T) {
	consumer, err := NewConfluentConsumer(config.KafkaConfig{
		Brokers:       []string{"localhost:1"},
		ConsumerGroup: "g",
		Protocol:      "plaintext",
	})
	require.NoError(t, err)
	defer consumer.Close()

	assert.Error(t, consumer.Consume(context.Background(), nil, func(context.Context, Record) error { return nil }))
}
