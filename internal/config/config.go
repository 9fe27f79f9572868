package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// SlotGranularity is the step between successive candidate slot starts.
	SlotGranularity time.Duration
	// ConversationStateTTL bounds how long an abandoned flow keeps its state.
	ConversationStateTTL time.Duration
	// BookingWindowMonths counts the current month plus how many ahead are bookable.
	BookingWindowMonths int

	DefaultLanguage string
	UseMemoryState  bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		SlotGranularity:      getEnvAsDuration("SLOT_GRANULARITY", 30*time.Minute),
		ConversationStateTTL: getEnvAsDuration("CONVERSATION_STATE_TTL", 24*time.Hour),
		BookingWindowMonths:  getEnvAsInt("BOOKING_WINDOW_MONTHS", 1),
		DefaultLanguage:      strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_LANGUAGE", "en"))),
		UseMemoryState:       getEnvAsBool("USE_MEMORY_STATE", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
