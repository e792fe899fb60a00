package models

import "time"

// CorsConfig is the single row of cors_config the API reads its CORS policy from
type CorsConfig struct {
	ConfigKey string `json:"config_key"`
	// AllowedOrigins is stored comma separated; see database.AllowedOriginsSlice
	AllowedOrigins   string    `json:"allowed_origins"`
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"` // preflight cache, seconds
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RatelimitConfig is the single row of ratelimit_config. Rate uses the ulule/limiter
// format, requests per period: "5-S", "100-M", "1000-H".
type RatelimitConfig struct {
	ConfigKey string    `json:"config_key"`
	Rate      string    `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
