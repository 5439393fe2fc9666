// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config captures everything cmd/server needs to wire the service.
type Config struct {
	Addr string

	// TokenKey seals the session cookie. Must be overridden in production.
	TokenKey string

	// DatabaseURL selects the PostgreSQL-backed stores; empty falls back
	// to in-memory stores (development only).
	DatabaseURL string

	// RedisURL selects the Redis session store over the SQL one.
	RedisURL string

	// KafkaBrokers enables the audit event stream when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// AuditQueueSize bounds the in-flight audit entries awaiting the worker.
	AuditQueueSize int

	// AdminUsers lists the user ids allowed on the admin surface.
	AdminUsers []string
}

// FromEnv reads configuration from the environment, applying development
// defaults for anything unset.
func FromEnv() Config {
	cfg := Config{
		Addr:           getenv("GATEHOUSE_ADDR", ":8080"),
		TokenKey:       getenv("GATEHOUSE_TOKEN_KEY", "dev-token-key-change-in-production"),
		DatabaseURL:    os.Getenv("GATEHOUSE_DATABASE_URL"),
		RedisURL:       os.Getenv("GATEHOUSE_REDIS_URL"),
		KafkaTopic:     getenv("GATEHOUSE_KAFKA_TOPIC", "gatehouse.audit"),
		AuditQueueSize: getint("GATEHOUSE_AUDIT_QUEUE_SIZE", 256),
	}
	cfg.KafkaBrokers = splitList(os.Getenv("GATEHOUSE_KAFKA_BROKERS"))
	cfg.AdminUsers = splitList(os.Getenv("GATEHOUSE_ADMIN_USERS"))
	return cfg
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
