// Package config provides environment-based configuration for the client and
// the backend.
package config

import (
	"fmt"
	"os"
	"time"
)

// Client holds the terminal client's configuration.
type Client struct {
	// BaseURL is the backend the client talks to.
	BaseURL string
	// CredentialsPath overrides the persisted-session location. Empty means
	// the standard config-dir path.
	CredentialsPath string
	// LogPath is the slog output file. Stdout belongs to the TUI.
	LogPath string
	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string
}

// LoadClient reads the client configuration from the environment.
func LoadClient() (*Client, error) {
	cfg := &Client{
		BaseURL:         getEnv("WEALTHSYNC_API", "http://localhost:8000"),
		CredentialsPath: getEnv("WEALTHSYNC_CREDENTIALS", ""),
		LogPath:         getEnv("WEALTHSYNC_LOG", "wealthsync.log"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("WEALTHSYNC_API cannot be empty")
	}
	return cfg, nil
}

// Server holds the backend's configuration.
type Server struct {
	Addr         string
	DBPath       string
	JWTSecret    string
	GeminiAPIKey string
	TokenTTL     time.Duration
}

// LoadServer reads the backend configuration from the environment.
func LoadServer() (*Server, error) {
	cfg := &Server{
		Addr:         ":" + getEnv("PORT", "8000"),
		DBPath:       getEnv("DB_PATH", "./data/wealthsync.db"),
		JWTSecret:    getEnv("SECRET_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		TokenTTL:     24 * time.Hour,
	}

	if ttl := getEnv("ACCESS_TOKEN_TTL", ""); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("SECRET_KEY must be set")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
