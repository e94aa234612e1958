// Package events publishes terminal submission outcomes to Kafka so
// downstream consumers can react to confirmed and failed transactions.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/cmatc13/ledgerflow/internal/ledger"
	"github.com/cmatc13/ledgerflow/pkg/logging"
)

var (
	// Topic for successfully executed transactions
	confirmedTopic = "ledgerflow.confirmed"

	// Topic for failed, reverted, or rejected transactions
	failedTopic = "ledgerflow.failed"
)

// KafkaPublisher publishes terminal transaction records keyed by address
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *logging.Logger
}

// NewKafkaPublisher creates a publisher connected to the given brokers
func NewKafkaPublisher(brokers string, logger *logging.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer: producer,
		logger:   logger,
	}, nil
}

// PublishOutcome publishes a terminal record. Executed records with an
// error message are application-level reverts and go to the failed topic.
func (p *KafkaPublisher) PublishOutcome(ctx context.Context, record *ledger.TransactionRecord) error {
	topic := confirmedTopic
	if record.Status == ledger.StatusFailed || record.ErrorMessage != "" {
		topic = failedTopic
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize outcome for %s: %w", record.Address, err)
	}

	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(record.Address),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to publish outcome for %s: %w", record.Address, err)
	}

	p.logger.Debug("Published submission outcome",
		"address", record.Address, "topic", topic, "status", string(record.Status))
	return nil
}

// Close flushes and closes the underlying producer
func (p *KafkaPublisher) Close() {
	p.producer.Flush(int(15 * time.Second / time.Millisecond))
	p.producer.Close()
}
