package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendScylla   = "scylla"
	BackendRedis    = "redis"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	TableName    string
	StoreBackend string

	// IsOffline points every backend at OfflineEndpoint and keeps the event
	// bus in-process.
	IsOffline       bool
	OfflineEndpoint string

	PostgresDSN    string
	ScyllaHosts    []string
	ScyllaKeyspace string
	RedisURL       string
	KafkaBrokers   []string

	ScheduleRefreshInterval time.Duration

	EnableScheduleRunner  bool
	EnableEventPublishing bool
	EnsureSchema          bool
}

// Load reads the process environment. A .env file in the working directory
// is applied first when present; variables already set win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "pollkeeper"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	table := strings.TrimSpace(os.Getenv("TABLE_NAME"))
	if table == "" {
		table = "polls"
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))
	if backend == "" {
		backend = BackendMemory
	}
	switch backend {
	case BackendMemory, BackendPostgres, BackendScylla, BackendRedis:
	default:
		return Config{}, fmt.Errorf("unsupported STORE_BACKEND %q", backend)
	}

	refresh := time.Minute
	if raw := strings.TrimSpace(os.Getenv("SCHEDULE_REFRESH_INTERVAL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("invalid SCHEDULE_REFRESH_INTERVAL %q", raw)
		}
		refresh = parsed
	}

	brokers := splitList(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	hosts := splitList(os.Getenv("SCYLLA_HOSTS"))
	if len(hosts) == 0 {
		hosts = []string{"localhost:9042"}
	}

	keyspace := strings.TrimSpace(os.Getenv("SCYLLA_KEYSPACE"))
	if keyspace == "" {
		keyspace = "pollkeeper"
	}

	redisURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	return Config{
		ServiceName:     service,
		HTTPPort:        port,
		TableName:       table,
		StoreBackend:    backend,
		IsOffline:       envBool("IS_OFFLINE", false),
		OfflineEndpoint: strings.TrimSpace(os.Getenv("OFFLINE_ENDPOINT")),

		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		ScyllaHosts:    hosts,
		ScyllaKeyspace: keyspace,
		RedisURL:       redisURL,
		KafkaBrokers:   brokers,

		ScheduleRefreshInterval: refresh,

		EnableScheduleRunner:  envBool("ENABLE_SCHEDULE_RUNNER", true),
		EnableEventPublishing: envBool("ENABLE_EVENT_PUBLISHING", true),
		EnsureSchema:          envBool("ENSURE_SCHEMA", true),
	}, nil
}

// Endpoint returns OfflineEndpoint, or fallback when it is unset, when the
// process runs offline. Otherwise it returns remote.
func (c Config) Endpoint(remote string, fallback string) string {
	if !c.IsOffline {
		return remote
	}
	if c.OfflineEndpoint != "" {
		return c.OfflineEndpoint
	}
	return fallback
}

func splitList(raw string) []string {
	var values []string
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
