package events

import (
	"fmt"
	"os"
	"strings"
)

// Config holds Kafka configuration
type Config struct {
	Brokers           string
	SessionTopic      string
	EnableIdempotence bool
	Acks              string
}

// LoadConfig loads Kafka configuration from environment variables
func LoadConfig() (*Config, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	sessionTopic := os.Getenv("KAFKA_TOPIC_SESSION_EVENTS")
	if sessionTopic == "" {
		sessionTopic = "session-events"
	}

	return &Config{
		Brokers:           brokers,
		SessionTopic:      sessionTopic,
		EnableIdempotence: true,
		Acks:              "all",
	}, nil
}

// GetBrokersList returns brokers as a slice
func (c *Config) GetBrokersList() []string {
	brokers := strings.Split(c.Brokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}
