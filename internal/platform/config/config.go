package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures the service level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Fact gathering.
	FetchTimeout        time.Duration
	AutoRefreshInterval time.Duration

	// Approval policy.
	PreventSelfApproval bool

	// Optional backing services; empty means in-memory fallbacks.
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	addr := os.Getenv("GATEHOUSE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:                addr,
		JWTSigningKey:       jwtSigningKey,
		FetchTimeout:        durationFromEnv("GATEHOUSE_FETCH_TIMEOUT", 5*time.Second),
		AutoRefreshInterval: durationFromEnv("GATEHOUSE_REFRESH_INTERVAL", 30*time.Second),
		PreventSelfApproval: boolFromEnv("GATEHOUSE_PREVENT_SELF_APPROVAL", true),
		PostgresDSN:         os.Getenv("GATEHOUSE_POSTGRES_DSN"),
		RedisAddr:           os.Getenv("GATEHOUSE_REDIS_ADDR"),
		KafkaBrokers:        os.Getenv("GATEHOUSE_KAFKA_BROKERS"),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func boolFromEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}
