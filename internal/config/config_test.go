package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.OutagesURL)
	assert.Equal(t, EncodingWindows1251, cfg.SourceEncoding)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 0, cfg.FetchRetries)
	assert.Equal(t, "https://api.telegram.org", cfg.TelegramAPIURL)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "outages.db", cfg.DatabaseURL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "utility-outages", cfg.KafkaTopic)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 10*time.Minute, cfg.RunLockTTL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Minute, cfg.SchedulerTick)
	assert.Equal(t, 4, cfg.DispatchConcurrency)
	assert.Equal(t, 3500, cfg.MessageLimit)
	assert.Empty(t, cfg.SeedFile)
	assert.False(t, cfg.SeedWatch)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OUTAGES_URL", "https://example.org/outages.html")
	t.Setenv("SOURCE_ENCODING", "UTF-8")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("FETCH_RETRIES", "3")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_API_URL", "http://localhost:8081")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/outages?sslmode=disable")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "outages")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RUN_LOCK_TTL", "2m")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SCHEDULER_TICK", "30s")
	t.Setenv("DISPATCH_CONCURRENCY", "8")
	t.Setenv("MESSAGE_LIMIT", "4000")
	t.Setenv("SEED_FILE", "seed.toml")
	t.Setenv("SEED_WATCH", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.RequireRuntime())

	assert.Equal(t, "https://example.org/outages.html", cfg.OutagesURL)
	assert.Equal(t, EncodingUTF8, cfg.SourceEncoding)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3, cfg.FetchRetries)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "http://localhost:8081", cfg.TelegramAPIURL)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "outages", cfg.KafkaTopic)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 2*time.Minute, cfg.RunLockTTL)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.SchedulerTick)
	assert.Equal(t, 8, cfg.DispatchConcurrency)
	assert.Equal(t, 4000, cfg.MessageLimit)
	assert.Equal(t, "seed.toml", cfg.SeedFile)
	assert.True(t, cfg.SeedWatch)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"FETCH_TIMEOUT", "0s", "FETCH_TIMEOUT"},
		{"RUN_LOCK_TTL", "soon", "RUN_LOCK_TTL"},
		{"SCHEDULER_TICK", "-5s", "SCHEDULER_TICK"},
		{"FETCH_RETRIES", "11", "FETCH_RETRIES"},
		{"DISPATCH_CONCURRENCY", "0", "DISPATCH_CONCURRENCY"},
		{"MESSAGE_LIMIT", "999", "MESSAGE_LIMIT"},
		{"MESSAGE_LIMIT", "5000", "MESSAGE_LIMIT"},
		{"DATABASE_DRIVER", "mysql", "DATABASE_DRIVER"},
		{"SOURCE_ENCODING", "koi8-r", "SOURCE_ENCODING"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_SeedWatchWithoutFile(t *testing.T) {
	t.Setenv("SEED_WATCH", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEED_FILE")
}

func TestRequireRuntime(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.RequireRuntime(), "OUTAGES_URL")

	cfg.OutagesURL = "https://example.org"
	assert.ErrorContains(t, cfg.RequireRuntime(), "TELEGRAM_TOKEN")

	cfg.DryRun = true
	assert.NoError(t, cfg.RequireRuntime())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OUTAGES_URL=https://from-dotenv.example\nLOG_LEVEL=warn\n"), 0o600))
	t.Setenv("OUTAGES_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	os.Unsetenv("OUTAGES_URL")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "https://from-dotenv.example", os.Getenv("OUTAGES_URL"))
	assert.Equal(t, "error", os.Getenv("LOG_LEVEL"), "process environment wins")
}
