// Package config builds process configuration from environment variables so
// main stays lean. Every knob has a development default; production overrides
// them through the environment.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything cmd/server needs to wire the process.
type Config struct {
	Addr          string
	PostgresURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	ListCacheTTL  time.Duration
	MailFrom      string
	SMTPAddr      string
}

// RedisConfig holds connection tuning for the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the outbox relay's producer settings. Empty brokers
// disable the relay.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("NONCONF_ADDR", ":8080"),
		PostgresURL:   os.Getenv("NONCONF_POSTGRES_URL"),
		JWTSigningKey: envOr("NONCONF_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ListCacheTTL:  10 * time.Minute,
		MailFrom:      envOr("NONCONF_MAIL_FROM", "rnc@localhost"),
		SMTPAddr:      os.Getenv("NONCONF_SMTP_ADDR"),
		Redis: RedisConfig{
			URL:          os.Getenv("NONCONF_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: envOr("NONCONF_KAFKA_TOPIC", "rnc.record-events"),
		},
	}
	if ttl, err := time.ParseDuration(os.Getenv("NONCONF_LIST_CACHE_TTL")); err == nil && ttl > 0 {
		cfg.ListCacheTTL = ttl
	}
	if brokers := os.Getenv("NONCONF_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, broker)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
