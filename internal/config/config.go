package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Database drivers accepted in DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Source encodings accepted in SOURCE_ENCODING.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1251 = "windows-1251"
)

// Bounds for MESSAGE_LIMIT. Telegram rejects messages over 4096 characters.
const (
	minMessageLimit = 1000
	maxMessageLimit = 4096
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	OutagesURL     string
	SourceEncoding string
	FetchTimeout   time.Duration
	FetchRetries   int

	TelegramToken  string
	TelegramAPIURL string
	DryRun         bool

	DatabaseDriver string
	DatabaseURL    string

	// Outage event stream.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Distributed run lock; an empty URL keeps the lock in-process.
	RedisURL   string
	RunLockTTL time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SchedulerTick       time.Duration
	DispatchConcurrency int
	MessageLimit        int

	SeedFile  string
	SeedWatch bool
}

// LoadDotEnv loads .env files from the working directory into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
// Settings needed only to talk to the source and the transport are checked
// separately by RequireRuntime, so read-only commands can run without them.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	lockTTL, err := parseDuration("RUN_LOCK_TTL", "10m")
	if err != nil {
		return nil, err
	}
	tick, err := parseDuration("SCHEDULER_TICK", "1m")
	if err != nil {
		return nil, err
	}
	retries, err := parseInt("FETCH_RETRIES", 0, 0, 10)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseInt("DISPATCH_CONCURRENCY", 4, 1, 64)
	if err != nil {
		return nil, err
	}
	messageLimit, err := parseInt("MESSAGE_LIMIT", 3500, minMessageLimit, maxMessageLimit)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutagesURL:     os.Getenv("OUTAGES_URL"),
		SourceEncoding: strings.ToLower(sharedcfg.EnvOrDefault("SOURCE_ENCODING", EncodingWindows1251)),
		FetchTimeout:   fetchTimeout,
		FetchRetries:   retries,

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramAPIURL: sharedcfg.EnvOrDefault("TELEGRAM_API_URL", "https://api.telegram.org"),
		DryRun:         parseBool("DRY_RUN"),

		DatabaseDriver: strings.ToLower(sharedcfg.EnvOrDefault("DATABASE_DRIVER", DriverSQLite)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		KafkaEnabled: parseBool("KAFKA_ENABLED"),
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "utility-outages"),

		RedisURL:   os.Getenv("REDIS_URL"),
		RunLockTTL: lockTTL,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SchedulerTick:       tick,
		DispatchConcurrency: concurrency,
		MessageLimit:        messageLimit,

		SeedFile:  os.Getenv("SEED_FILE"),
		SeedWatch: parseBool("SEED_WATCH"),
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "outages.db"
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: want sqlite or postgres", cfg.DatabaseDriver)
	}

	if cfg.SourceEncoding != EncodingUTF8 && cfg.SourceEncoding != EncodingWindows1251 {
		return nil, fmt.Errorf("invalid SOURCE_ENCODING %q: want utf-8 or windows-1251", cfg.SourceEncoding)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required")
		}
	}
	if cfg.SeedWatch && cfg.SeedFile == "" {
		return nil, errors.New("SEED_WATCH is true but SEED_FILE is not set")
	}

	return cfg, nil
}

// RequireRuntime checks the settings needed to fetch the source and deliver
// notifications.
func (c *Config) RequireRuntime() error {
	if c.OutagesURL == "" {
		return errors.New("OUTAGES_URL is required")
	}
	if c.TelegramToken == "" && !c.DryRun {
		return errors.New("TELEGRAM_TOKEN is required unless DRY_RUN is true")
	}
	return nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be %d-%d", key, lo, hi)
	}
	return n, nil
}

func parseBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}
