package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Event) error {
	return errors.New("broker unavailable")
}

func TestLoadConfigRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without KAFKA_BROKERS")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("KAFKA_TOPIC_SESSION_EVENTS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.SessionTopic != "session-events" {
		t.Errorf("Expected default topic session-events, got %s", cfg.SessionTopic)
	}
	if !cfg.EnableIdempotence || cfg.Acks != "all" {
		t.Errorf("Expected idempotent producer with acks=all, got %+v", cfg)
	}

	brokers := cfg.GetBrokersList()
	if len(brokers) != 2 || brokers[1] != "kafka-2:9092" {
		t.Errorf("Expected two trimmed brokers, got %v", brokers)
	}
}

func TestNewStampsEvent(t *testing.T) {
	event := New(TypeSessionOpened, "alice")

	if event.Type != TypeSessionOpened || event.Username != "alice" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.OccurredAt.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

func TestPublishBestEffortLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	PublishBestEffort(context.Background(), failingPublisher{}, logger, New(TypeLoginFailed, "bob"))

	if !strings.Contains(buf.String(), "broker unavailable") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}
}

func TestPublishBestEffortNilPublisher(t *testing.T) {
	PublishBestEffort(context.Background(), nil, slog.Default(), New(TypeSessionClosed, "bob"))
	if err := (NopPublisher{}).Publish(context.Background(), Event{}); err != nil {
		t.Fatalf("NopPublisher returned error: %v", err)
	}
}
