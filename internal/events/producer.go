package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaPublisher publishes session events to a Kafka topic
type KafkaPublisher struct {
	producer *kafka.Producer
	config   *Config
	logger   *slog.Logger
}

// NewKafkaPublisher creates an idempotent Kafka producer for session events
func NewKafkaPublisher(config *Config, logger *slog.Logger) (*KafkaPublisher, error) {
	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers":                     strings.Join(config.GetBrokersList(), ","),
		"enable.idempotence":                    config.EnableIdempotence,
		"acks":                                  config.Acks,
		"max.in.flight.requests.per.connection": 5,
	}

	p, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	publisher := &KafkaPublisher{
		producer: p,
		config:   config,
		logger:   logger,
	}

	go publisher.handleDeliveryReports()

	logger.Info("Kafka producer initialized",
		"brokers", config.GetBrokersList(),
		"topic", config.SessionTopic,
		"idempotence", config.EnableIdempotence)

	return publisher, nil
}

// Publish enqueues the event keyed by username so one user's events stay ordered.
// Delivery is reported asynchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := p.config.SessionTopic
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.Username),
		Value: payload,
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	p.logger.Debug("Session event published to Kafka",
		"topic", topic,
		"type", event.Type)

	return nil
}

// handleDeliveryReports processes asynchronous delivery reports
func (p *KafkaPublisher) handleDeliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("Delivery failed",
					"topic", *ev.TopicPartition.Topic,
					"error", ev.TopicPartition.Error)
			}
		case kafka.Error:
			p.logger.Warn("Kafka producer error", "error", ev.Error())
		}
	}
}

// Close flushes pending messages and closes the producer
func (p *KafkaPublisher) Close() {
	p.logger.Info("Closing Kafka producer...")

	if remaining := p.producer.Flush(10000); remaining > 0 {
		p.logger.Error("Some session events were not delivered",
			"count", remaining)
	}

	p.producer.Close()
	p.logger.Info("Kafka producer closed")
}
