package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{
		"SERVICE_NAME", "HTTP_PORT", "TABLE_NAME", "STORE_BACKEND", "IS_OFFLINE",
		"OFFLINE_ENDPOINT", "KAFKA_BROKERS", "SCYLLA_HOSTS", "SCYLLA_KEYSPACE",
		"REDIS_URL", "SCHEDULE_REFRESH_INTERVAL", "ENABLE_SCHEDULE_RUNNER",
	} {
		t.Setenv(name, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "pollkeeper" || cfg.HTTPPort != "8080" || cfg.TableName != "polls" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.StoreBackend != BackendMemory || cfg.IsOffline {
		t.Fatalf("expected memory backend online, got %+v", cfg)
	}
	if cfg.ScheduleRefreshInterval != time.Minute || !cfg.EnableScheduleRunner {
		t.Fatalf("unexpected worker defaults %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TABLE_NAME", "surveys")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("IS_OFFLINE", "yes")
	t.Setenv("OFFLINE_ENDPOINT", "redis://127.0.0.1:6380/0")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SCHEDULE_REFRESH_INTERVAL", "15s")
	t.Setenv("ENABLE_SCHEDULE_RUNNER", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TableName != "surveys" || cfg.StoreBackend != BackendRedis || !cfg.IsOffline {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.ScheduleRefreshInterval != 15*time.Second || cfg.EnableScheduleRunner {
		t.Fatalf("unexpected worker config %+v", cfg)
	}
	if got := cfg.Endpoint("redis://remote:6379/0", "redis://localhost:6379/0"); got != "redis://127.0.0.1:6380/0" {
		t.Fatalf("expected offline endpoint, got %s", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("STORE_BACKEND", "dynamo")
	if _, err := Load(); err == nil {
		t.Fatalf("expected unsupported backend error")
	}

	t.Setenv("STORE_BACKEND", "")
	t.Setenv("SCHEDULE_REFRESH_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid interval error")
	}
}

func TestEndpointOnlineUsesRemote(t *testing.T) {
	cfg := Config{OfflineEndpoint: "local:1"}
	if got := cfg.Endpoint("remote:1", "fallback:1"); got != "remote:1" {
		t.Fatalf("expected remote endpoint, got %s", got)
	}
	cfg.IsOffline = true
	cfg.OfflineEndpoint = ""
	if got := cfg.Endpoint("remote:1", "fallback:1"); got != "fallback:1" {
		t.Fatalf("expected fallback endpoint, got %s", got)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FLAG_UNDER_TEST", "maybe")
	if !envBool("FLAG_UNDER_TEST", true) {
		t.Fatalf("expected fallback for unparseable value")
	}
	t.Setenv("FLAG_UNDER_TEST", "0")
	if envBool("FLAG_UNDER_TEST", true) {
		t.Fatalf("expected false")
	}
}
