package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	FrontendURL      string
	EnableHSTS       bool
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
	OTELSecure       bool
	OTELSampleRatio  float64

	// Rotation
	RotationDefaultCount int
	RotationScheduleHour int
	RotationTimezone     string

	// Admin API
	AdminJWTSecret string

	// AI keyword suggestions (optional)
	AIProvider string
	OpenAIKey  string
	AIModel    string
	AIBaseURL  string

	// TikTok search through RapidAPI (optional)
	RapidAPIKey        string
	RapidAPITikTokHost string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:           getEnvBool("ENABLE_HSTS", false),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:          getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:     getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:      getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:      getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:          getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSecure:           getEnvBool("OTEL_EXPORTER_OTLP_SECURE", false),
		OTELSampleRatio:      getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		RotationDefaultCount: getEnvInt("ROTATION_DEFAULT_COUNT", 3),
		RotationScheduleHour: getEnvInt("ROTATION_SCHEDULE_HOUR", 6),
		RotationTimezone:     getEnv("ROTATION_TIMEZONE", ""),
		AdminJWTSecret:       getEnv("ADMIN_JWT_SECRET", ""),
		OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
		AIModel:              getEnv("AI_MODEL", ""),
		AIBaseURL:            getEnv("AI_BASE_URL", ""),
		RapidAPIKey:          getEnv("RAPIDAPI_KEY", ""),
		RapidAPITikTokHost:   getEnv("RAPIDAPI_TIKTOK_HOST", "tiktok-api23.p.rapidapi.com"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RotationScheduleHour < 0 || cfg.RotationScheduleHour > 23 {
		return nil, fmt.Errorf("ROTATION_SCHEDULE_HOUR must be between 0 and 23, got %d", cfg.RotationScheduleHour)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves RotationTimezone. An empty value means the process local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.RotationTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.RotationTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ROTATION_TIMEZONE %q: %w", c.RotationTimezone, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
