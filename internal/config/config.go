// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
	RequireTLS      bool

	OTELEnabled     bool
	OTLPEndpoint    string
	OTELSampleRatio float64

	// OpenWeatherMap Air Pollution API.
	OWMAPIKey  string
	OWMBaseURL string
	OWMTimeout time.Duration

	// Air quality cache.
	CacheTTL        time.Duration
	StaleIfErrorTTL time.Duration
	CacheGridSize   float64

	// Worker.
	PubSubProjectID    string
	PubSubSubscription string
	KafkaBrokers       []string
	KafkaTopic         string
	RefreshInterval    time.Duration
	RefreshConcurrency int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var errs []error

	duration := func(key, def string) time.Duration {
		d, err := parsePositiveDuration(key, envOrDefault(key, def))
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	cfg := &Config{
		Port:            envOrDefault("APP_PORT", "8080"),
		Env:             envOrDefault("APP_ENV", "development"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		ShutdownTimeout: duration("SHUTDOWN_TIMEOUT", "30s"),
		RequireTLS:      os.Getenv("REQUIRE_TLS") == "true",

		OTELEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint: envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		OWMAPIKey:  os.Getenv("OWM_API_KEY"),
		OWMBaseURL: os.Getenv("OWM_BASE_URL"),
		OWMTimeout: duration("OWM_TIMEOUT", "10s"),

		CacheTTL:        duration("AQ_CACHE_TTL", "10m"),
		StaleIfErrorTTL: duration("AQ_STALE_IF_ERROR_TTL", "1h"),

		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: os.Getenv("PUBSUB_SUBSCRIPTION"),
		KafkaBrokers:       parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         envOrDefault("KAFKA_TOPIC", "air-quality-assessments"),
		RefreshInterval:    duration("REFRESH_INTERVAL", "15m"),
	}

	gridSize, err := strconv.ParseFloat(envOrDefault("AQ_CACHE_GRID_SIZE", "0.1"), 64)
	if err != nil || gridSize <= 0 {
		errs = append(errs, errors.New("invalid AQ_CACHE_GRID_SIZE"))
	}
	cfg.CacheGridSize = gridSize

	ratio, err := strconv.ParseFloat(envOrDefault("OTEL_SAMPLE_RATIO", "1"), 64)
	if err != nil || !(ratio > 0 && ratio <= 1) {
		errs = append(errs, errors.New("invalid OTEL_SAMPLE_RATIO: must be in (0,1]"))
	}
	cfg.OTELSampleRatio = ratio

	concurrency, err := strconv.Atoi(envOrDefault("REFRESH_CONCURRENCY", "3"))
	if err != nil || concurrency <= 0 {
		errs = append(errs, errors.New("invalid REFRESH_CONCURRENCY"))
	}
	cfg.RefreshConcurrency = concurrency

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel))
	}
	if cfg.PubSubSubscription != "" && cfg.PubSubProjectID == "" {
		errs = append(errs, errors.New("PUBSUB_SUBSCRIPTION is set but PUBSUB_PROJECT_ID is not"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Level returns the zerolog level for LogLevel, defaulting to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PubSubEnabled reports whether the worker should consume Pub/Sub jobs.
func (c *Config) PubSubEnabled() bool {
	return c.PubSubProjectID != "" && c.PubSubSubscription != ""
}

// KafkaEnabled reports whether assessments should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePositiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, value)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
