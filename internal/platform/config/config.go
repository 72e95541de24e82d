package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process level configuration. Empty backends fall back to
// in-process implementations.
type Server struct {
	Addr          string `env:"COMMISSION_ADDR" envDefault:":8080"`
	LogLevel      string `env:"COMMISSION_LOG_LEVEL" envDefault:"info"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"commission"`
	// DatabaseURL selects the postgres stores; empty keeps everything in memory.
	DatabaseURL  string        `env:"DATABASE_URL"`
	TxTimeout    time.Duration `env:"COMMISSION_TX_TIMEOUT" envDefault:"5s"`
	LockTTL      time.Duration `env:"COMMISSION_LOCK_TTL" envDefault:"10s"`
	OTLPEndpoint string        `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	Redis        RedisConfig   `envPrefix:"REDIS_"`
	Kafka        KafkaConfig   `envPrefix:"KAFKA_"`
}

// RedisConfig configures the distributed decision lock. An empty URL keeps
// locks in process.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the activity mirror. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string `env:"BROKERS" envSeparator:","`
	ClientID          string   `env:"CLIENT_ID" envDefault:"commission"`
	ActivityTopic     string   `env:"ACTIVITY_TOPIC" envDefault:"commission.activity"`
	Partitions        int32    `env:"PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"REPLICATION_FACTOR" envDefault:"1"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
