package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Payment  PaymentConfig
	Hold     HoldConfig
	Booking  BookingConfig
	JWT      JWTConfig
	CORS     CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// PaymentConfig holds PayOS merchant configuration
type PaymentConfig struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	ChecksumKey string // SECRET - never expose to client
	ReturnURL   string
	CancelURL   string
}

// HoldConfig holds slot hold store configuration
type HoldConfig struct {
	Backend       string // "memory" or "redis"
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// BookingConfig holds booking lifecycle configuration
type BookingConfig struct {
	// OrphanThreshold is how long a PENDING booking may sit without a
	// slot binding before the sweep cancels it.
	OrphanThreshold time.Duration
}

// JWTConfig holds staff token verification configuration
type JWTConfig struct {
	Secret string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Payment: PaymentConfig{
			BaseURL:     getEnv("PAYOS_BASE_URL", ""),
			ClientID:    getEnv("PAYOS_CLIENT_ID", ""),
			APIKey:      getEnv("PAYOS_API_KEY", ""),
			ChecksumKey: getEnv("PAYOS_CHECKSUM_KEY", ""),
			ReturnURL:   getEnv("PAYOS_RETURN_URL", ""),
			CancelURL:   getEnv("PAYOS_CANCEL_URL", ""),
		},
		Hold: HoldConfig{
			Backend:       getEnv("HOLD_STORE", "memory"),
			TTL:           time.Duration(getEnvAsInt("HOLD_TTL_SECONDS", 300)) * time.Second,
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
		},
		Booking: BookingConfig{
			OrphanThreshold: time.Duration(getEnvAsInt("BOOKING_ORPHAN_THRESHOLD_SECONDS", 600)) * time.Second,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Hold.Backend != "memory" && c.Hold.Backend != "redis" {
		return fmt.Errorf("HOLD_STORE must be 'memory' or 'redis', got %q", c.Hold.Backend)
	}

	if c.Hold.TTL <= 0 {
		return fmt.Errorf("HOLD_TTL_SECONDS must be positive")
	}

	if c.Server.Environment == "production" {
		if c.Payment.ClientID == "" || c.Payment.APIKey == "" || c.Payment.ChecksumKey == "" {
			return fmt.Errorf("PAYOS_CLIENT_ID, PAYOS_API_KEY and PAYOS_CHECKSUM_KEY are required in production")
		}
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice gets an environment variable as a comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
