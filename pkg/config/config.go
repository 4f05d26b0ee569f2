package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Places   PlacesConfig
	LiveFeed LiveFeedConfig
	Matching MatchingConfig
	Redis    RedisConfig
	OTEL     OTELConfig
	Env      string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// PlacesConfig holds place-search provider configuration
type PlacesConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
}

// LiveFeedConfig holds live occupancy feed configuration
type LiveFeedConfig struct {
	URL          string
	TTL          time.Duration
	FetchTimeout time.Duration
}

// MatchingConfig holds the facility matching table configuration
type MatchingConfig struct {
	ConfigPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Places: PlacesConfig{
			Provider: getEnv("PLACES_PROVIDER", "mock"),
			APIKey:   getEnv("PLACES_API_KEY", ""),
			BaseURL:  getEnv("PLACES_BASE_URL", ""),
		},
		LiveFeed: LiveFeedConfig{
			URL:          getEnv("LIVE_FEED_URL", "https://www.indexsante.ca/urgences/"),
			TTL:          time.Duration(getEnvAsInt("LIVE_FEED_TTL_MINUTES", 15)) * time.Minute,
			FetchTimeout: time.Duration(getEnvAsInt("LIVE_FEED_TIMEOUT_SECONDS", 8)) * time.Second,
		},
		Matching: MatchingConfig{
			ConfigPath: getEnv("MATCHING_CONFIG", "config/facility_matching.json"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "carefinder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Env: getEnv("APP_ENV", "development"),
	}, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
