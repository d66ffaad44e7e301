package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Persistence backends
const (
	PersistenceMemory   = "memory"
	PersistenceDynamoDB = "dynamodb"
)

// Event bus backends
const (
	EventBusNoop        = "noop"
	EventBusEventBridge = "eventbridge"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Persistence
	Persistence   string
	AWSRegion     string
	DynamoDBTable string

	// Messaging
	EventBus     string
	EventBusName string

	// OCR simulation
	OCRDelay time.Duration

	// Upload sessions
	SessionTTL time.Duration

	// Authentication
	JWTSecret     string
	JWTIssuer     string
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		Persistence:   getEnv("PERSISTENCE", PersistenceMemory),
		AWSRegion:     getEnv("AWS_REGION", "ap-northeast-1"),
		DynamoDBTable: getEnv("TABLE_NAME", "meishi-cards"),

		EventBus:     getEnv("EVENT_BUS", EventBusNoop),
		EventBusName: getEnv("EVENT_BUS_NAME", "meishi-events"),

		OCRDelay:   getEnvDuration("OCR_DELAY", 2*time.Second),
		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTIssuer:     getEnv("JWT_ISSUER", "meishi-backend"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "password123"),
		AdminName:     getEnv("ADMIN_NAME", "管理者 太郎"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.Persistence {
	case PersistenceMemory, PersistenceDynamoDB:
	default:
		return fmt.Errorf("PERSISTENCE must be %q or %q", PersistenceMemory, PersistenceDynamoDB)
	}

	switch c.EventBus {
	case EventBusNoop, EventBusEventBridge:
	default:
		return fmt.Errorf("EVENT_BUS must be %q or %q", EventBusNoop, EventBusEventBridge)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.Persistence == PersistenceDynamoDB && c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
	}

	return nil
}

// getEnv reads an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvBool reads a boolean environment variable with a fallback
func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration reads a duration environment variable with a fallback
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
