package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig holds one PMS platform's credentials and tuning knobs.
// A provider takes part in sync cycles only when Enabled is true.
type ProviderConfig struct {
	Enabled       bool
	BaseURL       string
	APIKey        string
	APISecret     string
	APIToken      string
	Username      string
	Password      string
	WebhookSecret string
}

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers     string
	SyncRequestTopic string
	SyncEventTopic   string

	// API Configuration
	APIPort string
	APIHost string

	// Sync tuning
	SyncConcurrency     int
	RequestTimeout      time.Duration
	MaxRetries          int
	AvailabilityHorizon time.Duration
	BookingLookback     time.Duration
	BookingLookahead    time.Duration
	SyncLogRetention    time.Duration
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RateLimitFailFast   bool

	// Providers
	Providers map[string]ProviderConfig

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", "sqlite://rental-sync.db"),
		KafkaBrokers:        getEnv("KAFKA_BROKERS", "localhost:9092"),
		SyncRequestTopic:    getEnv("SYNC_REQUEST_TOPIC", "sync-requests"),
		SyncEventTopic:      getEnv("SYNC_EVENT_TOPIC", "sync-events"),
		APIPort:             getEnv("API_PORT", "8080"),
		APIHost:             getEnv("API_HOST", "0.0.0.0"),
		SyncConcurrency:     getEnvAsInt("SYNC_CONCURRENCY", 0),
		RequestTimeout:      getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:          getEnvAsInt("MAX_RETRIES", 3),
		AvailabilityHorizon: getEnvAsDuration("AVAILABILITY_HORIZON", 365*24*time.Hour),
		BookingLookback:     getEnvAsDuration("BOOKING_LOOKBACK", 30*24*time.Hour),
		BookingLookahead:    getEnvAsDuration("BOOKING_LOOKAHEAD", 365*24*time.Hour),
		SyncLogRetention:    getEnvAsDuration("SYNC_LOG_RETENTION", 30*24*time.Hour),
		RateLimitRequests:   getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:     getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		RateLimitFailFast:   getEnvAsBool("RATE_LIMIT_FAIL_FAST", false),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	cfg.Providers = map[string]ProviderConfig{
		"hostaway": {
			Enabled:       getEnvAsBool("HOSTAWAY_ENABLED", os.Getenv("HOSTAWAY_API_KEY") != ""),
			BaseURL:       getEnv("HOSTAWAY_BASE_URL", "https://api.hostaway.com/v1"),
			APIKey:        getEnv("HOSTAWAY_API_KEY", ""),
			APISecret:     getEnv("HOSTAWAY_API_SECRET", ""),
			WebhookSecret: getEnv("HOSTAWAY_WEBHOOK_SECRET", ""),
		},
		"uplisting": {
			Enabled:       getEnvAsBool("UPLISTING_ENABLED", os.Getenv("UPLISTING_API_TOKEN") != ""),
			BaseURL:       getEnv("UPLISTING_BASE_URL", "https://api.uplisting.io/v2"),
			APIToken:      getEnv("UPLISTING_API_TOKEN", ""),
			WebhookSecret: getEnv("UPLISTING_WEBHOOK_SECRET", ""),
		},
		"ownerrez": {
			Enabled:       getEnvAsBool("OWNERREZ_ENABLED", os.Getenv("OWNERREZ_API_TOKEN") != ""),
			BaseURL:       getEnv("OWNERREZ_BASE_URL", "https://api.ownerreservations.com/v2"),
			Username:      getEnv("OWNERREZ_USERNAME", ""),
			APIToken:      getEnv("OWNERREZ_API_TOKEN", ""),
			WebhookSecret: getEnv("OWNERREZ_WEBHOOK_SECRET", ""),
		},
		"hostify": {
			Enabled:       getEnvAsBool("HOSTIFY_ENABLED", os.Getenv("HOSTIFY_API_KEY") != ""),
			BaseURL:       getEnv("HOSTIFY_BASE_URL", "https://api.hostify.com/v1"),
			APIKey:        getEnv("HOSTIFY_API_KEY", ""),
			WebhookSecret: getEnv("HOSTIFY_WEBHOOK_SECRET", ""),
		},
		"nextpax": {
			Enabled:       getEnvAsBool("NEXTPAX_ENABLED", os.Getenv("NEXTPAX_API_KEY") != ""),
			BaseURL:       getEnv("NEXTPAX_BASE_URL", "https://api.nextpax.app/v1"),
			APIKey:        getEnv("NEXTPAX_API_KEY", ""),
			WebhookSecret: getEnv("NEXTPAX_WEBHOOK_SECRET", ""),
		},
		"rentalsunited": {
			Enabled:       getEnvAsBool("RENTALSUNITED_ENABLED", os.Getenv("RENTALSUNITED_USERNAME") != ""),
			BaseURL:       getEnv("RENTALSUNITED_BASE_URL", "https://rm.rentalsunited.com/api"),
			Username:      getEnv("RENTALSUNITED_USERNAME", ""),
			Password:      getEnv("RENTALSUNITED_PASSWORD", ""),
			WebhookSecret: getEnv("RENTALSUNITED_WEBHOOK_SECRET", ""),
		},
	}

	return cfg, nil
}

// EnabledProviders returns the names of providers with credentials configured.
func (c *Config) EnabledProviders() []string {
	var names []string
	for name, pc := range c.Providers {
		if pc.Enabled {
			names = append(names, name)
		}
	}
	return names
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
