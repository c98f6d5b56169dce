package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	AdminAddress  string
	JWTSigningKey string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// PostgresConfig holds connection settings for the relational stores.
// An empty URL disables Postgres and the engine runs on memory stores.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds connection settings for the interaction counters.
// An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the lifecycle event stream.
// No brokers means events are not published.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ALERTCAST_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	admin := os.Getenv("ALERTCAST_ADMIN")
	if admin == "" {
		admin = "deployer"
	}

	jwtSigningKey := os.Getenv("ALERTCAST_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("ALERTCAST_KAFKA_TOPIC")
	if topic == "" {
		topic = "alertcast.lifecycle"
	}

	return Server{
		Addr:          addr,
		AdminAddress:  admin,
		JWTSigningKey: jwtSigningKey,
		Postgres: PostgresConfig{
			URL: os.Getenv("ALERTCAST_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("ALERTCAST_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("ALERTCAST_KAFKA_BROKERS")),
			Topic:   topic,
		},
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
