// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures everything cmd/server needs to wire the service.
type Server struct {
	Addr          string
	Environment   string
	LogLevel      string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration
	TxTimeout     time.Duration

	// TrustedProxies lists CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Audit    AuditConfig
	Groups   GroupConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AccessCacheTTL bounds how long an access decision may be served from cache.
	AccessCacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers         string
	AuditTopic      string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	OutboxInterval  time.Duration
}

type AuditConfig struct {
	// Retention is the age after which entries are purged. Zero disables purging.
	Retention         time.Duration
	RetentionInterval time.Duration
}

type GroupConfig struct {
	ExpiryInterval time.Duration
}

// DevSigningKey is used when JWT_SIGNING_KEY is unset outside production.
const DevSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:           envString("STEWARD_ADDR", ":8080"),
		Environment:    envString("ENVIRONMENT", "local"),
		LogLevel:       envString("LOG_LEVEL", "info"),
		JWTSigningKey:  envString("JWT_SIGNING_KEY", ""),
		JWTIssuer:      envString("JWT_ISSUER", "stewardship"),
		JWTAudience:    envString("JWT_AUDIENCE", "stewardship-api"),
		TrustedProxies: envList("TRUSTED_PROXIES"),
		Database: DatabaseConfig{
			URL:          envString("DATABASE_URL", ""),
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			URL:          envString("REDIS_URL", ""),
			PoolSize:     20,
			MinIdleConns: 2,
		},
		Kafka: KafkaConfig{
			Brokers:    envString("KAFKA_BROKERS", ""),
			AuditTopic: envString("AUDIT_TOPIC", "stewardship.audit.entries"),
			Acks:       envString("KAFKA_ACKS", "all"),
		},
	}

	var err error
	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"TOKEN_TTL", 15 * time.Minute, &cfg.TokenTTL},
		{"TX_TIMEOUT", 5 * time.Second, &cfg.TxTimeout},
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &cfg.Database.ConnMaxLifetime},
		{"REDIS_DIAL_TIMEOUT", 5 * time.Second, &cfg.Redis.DialTimeout},
		{"REDIS_READ_TIMEOUT", 3 * time.Second, &cfg.Redis.ReadTimeout},
		{"REDIS_WRITE_TIMEOUT", 3 * time.Second, &cfg.Redis.WriteTimeout},
		{"ACCESS_CACHE_TTL", 30 * time.Second, &cfg.Redis.AccessCacheTTL},
		{"KAFKA_DELIVERY_TIMEOUT", 30 * time.Second, &cfg.Kafka.DeliveryTimeout},
		{"OUTBOX_POLL_INTERVAL", 500 * time.Millisecond, &cfg.Kafka.OutboxInterval},
		{"AUDIT_RETENTION", 365 * 24 * time.Hour, &cfg.Audit.Retention},
		{"RETENTION_INTERVAL", time.Hour, &cfg.Audit.RetentionInterval},
		{"GROUP_EXPIRY_INTERVAL", 5 * time.Minute, &cfg.Groups.ExpiryInterval},
	}
	for _, d := range durations {
		if *d.dest, err = envDuration(d.key, d.def); err != nil {
			return Server{}, err
		}
	}
	if cfg.Kafka.Retries, err = envInt("KAFKA_RETRIES", 3); err != nil {
		return Server{}, err
	}

	if cfg.JWTSigningKey == "" {
		if cfg.Environment == "production" {
			return Server{}, fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		cfg.JWTSigningKey = DevSigningKey
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envList(key string) []string {
	raw := envString(key, "")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// envDuration accepts Go durations plus a "d" suffix for whole days.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := envString(key, "")
	if raw == "" {
		return def, nil
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid %s: %q", key, raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	raw := envString(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}
