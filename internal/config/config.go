// Package config loads process configuration from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all settings for the API process
type Config struct {
	Port        int
	ServiceHost string
	DatabaseURL string

	SessionTimeout       time.Duration
	SessionSweepInterval time.Duration
	BootstrapAdmin       string

	CORSAllowedOrigins []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	EnableKafka  bool
	KafkaBrokers string

	ConsulAddr  string
	ConsulToken string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from environment variables, applying defaults.
// DATABASE_URL is required.
func Load() (*Config, error) {
	if err := ValidateEnv([]string{"DATABASE_URL"}); err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(GetEnvOrDefault("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}

	cfg := &Config{
		Port:           port,
		ServiceHost:    GetEnvOrDefault("SERVICE_HOST", "localhost"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		BootstrapAdmin: strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN")),
		CORSAllowedOrigins: splitList(
			GetEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		),
		EnableKafka:  GetEnvOrDefault("ENABLE_KAFKA", "true") == "true",
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		ConsulAddr:   os.Getenv("CONSUL_HTTP_ADDR"),
		ConsulToken:  os.Getenv("CONSUL_HTTP_TOKEN"),
		LogLevel:     GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    GetEnvOrDefault("LOG_FORMAT", "json"),
	}

	durations := []struct {
		key   string
		def   time.Duration
		value *time.Duration
	}{
		{"SESSION_TIMEOUT", 30 * time.Minute, &cfg.SessionTimeout},
		{"SESSION_SWEEP_INTERVAL", 5 * time.Minute, &cfg.SessionSweepInterval},
		{"SERVER_READ_TIMEOUT", 15 * time.Second, &cfg.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", 60 * time.Second, &cfg.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", 120 * time.Second, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		v, err := GetEnvDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.value = v
	}

	if cfg.SessionTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_TIMEOUT must be positive, got %s", cfg.SessionTimeout)
	}

	return cfg, nil
}

// KafkaEnabled reports whether session events should go to Kafka
func (c *Config) KafkaEnabled() bool {
	return c.EnableKafka && c.KafkaBrokers != ""
}

// ValidateEnv validates that all required environment variables are set
func ValidateEnv(requiredVars []string) error {
	var missing []string

	for _, varName := range requiredVars {
		if os.Getenv(varName) == "" {
			missing = append(missing, varName)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration parses a duration variable such as "30m". Unset returns
// defaultValue; an unparsable value is an error.
func GetEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
