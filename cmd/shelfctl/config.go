package main

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ClientID     string // Required: OAuth2 client ID
	ClientSecret string // Optional: OAuth2 client secret

	APIBaseURL string // Optional: API base URL (default: production)
	TokenURL   string // Optional: token endpoint URL (default: production)

	PrivateKeyFile string        // Optional: path to RSA signing key PEM for server auth
	KeyPassphrase  string        // Optional: passphrase when the key file is encrypted
	KeyID          string        // Optional: registered public key ID
	EnterpriseID   string        // Optional: enterprise to act for
	UserID         string        // Optional: managed user to act as instead of the enterprise
	AssertionTTL   time.Duration // Optional: assertion lifetime (default: 30s)

	Timeout     time.Duration // Per-attempt timeout (default: 30s)
	MaxAttempts int           // Retry budget per request (default: 5)
	LogLevel    string        // Log level (debug, info, warn, error) (default: info)
	LogFormat   string        // Log format (json, text) (default: json)
}

func LoadConfig() Config {
	return Config{
		ClientID:       os.Getenv("SHELF_CLIENT_ID"),
		ClientSecret:   os.Getenv("SHELF_CLIENT_SECRET"),
		APIBaseURL:     os.Getenv("SHELF_API_BASE_URL"),
		TokenURL:       os.Getenv("SHELF_TOKEN_URL"),
		PrivateKeyFile: os.Getenv("SHELF_PRIVATE_KEY_FILE"),
		KeyPassphrase:  os.Getenv("SHELF_KEY_PASSPHRASE"),
		KeyID:          os.Getenv("SHELF_KEY_ID"),
		EnterpriseID:   os.Getenv("SHELF_ENTERPRISE_ID"),
		UserID:         os.Getenv("SHELF_USER_ID"),
		AssertionTTL:   getEnvDurationOrDefault("SHELF_ASSERTION_TTL", 0),
		Timeout:        getEnvDurationOrDefault("SHELF_TIMEOUT", 30*time.Second),
		MaxAttempts:    getEnvIntOrDefault("SHELF_MAX_ATTEMPTS", 0),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
