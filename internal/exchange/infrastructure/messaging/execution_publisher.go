// Package messaging publishes execution reports to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wyfcoding/exchangesim/internal/exchange/application"
)

// KafkaExecutionPublisher writes one JSON execution-report message per
// execution, keyed by symbol so per-symbol ordering is preserved.
type KafkaExecutionPublisher struct {
	writer *kafka.Writer
}

func NewKafkaExecutionPublisher(brokers []string, topic string) *KafkaExecutionPublisher {
	return &KafkaExecutionPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaExecutionPublisher) Publish(ctx context.Context, report *application.ExecutionReport) error {
	value, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.Symbol),
		Value: value,
	})
}

func (p *KafkaExecutionPublisher) Close() error {
	return p.writer.Close()
}

// NoopExecutionPublisher discards reports; used when Kafka is not
// configured.
type NoopExecutionPublisher struct{}

func NewNoopExecutionPublisher() *NoopExecutionPublisher { return &NoopExecutionPublisher{} }

func (*NoopExecutionPublisher) Publish(ctx context.Context, report *application.ExecutionReport) error {
	return nil
}

func (*NoopExecutionPublisher) Close() error { return nil }
