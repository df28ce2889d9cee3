// Package config centralizes environment-driven configuration.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/ripple-app/backend/internal/logger"
)

// Config holds all runtime settings resolved from the environment.
type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	FrontendURL string
	JWTSecret   string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	AWSRegion  string
	S3Bucket   string
	CDNBaseURL string
}

// Load reads .env when present and resolves the configuration. Missing
// optional values fall back to development defaults; JWTSecret is the one
// setting callers must verify before serving traffic.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Not an error: production supplies real environment variables.
		logger.SugaredLog.Debug(".env file not found, using process environment")
	}

	return &Config{
		Port:          getEnv("PORT", "4000"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", "server.log"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:      os.Getenv("AWS_BUCKET"),
		CDNBaseURL:    os.Getenv("CDN_BASE_URL"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvInt resolves an integer environment variable with a fallback.
func GetEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
