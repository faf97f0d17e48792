// Package config loads service settings from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the service settings.
type Config struct {
	HTTPPort           int
	StoreDriver        string
	DBPath             string
	DatabaseURL        string
	DBDebug            bool
	RedisAddr          string
	CachePrefix        string
	CacheTTL           time.Duration
	CORSAllowedOrigins string
	ShutdownTimeout    time.Duration
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset or malformed.
func Load() Config {
	return Config{
		HTTPPort:           getEnvInt("HTTP_PORT", 8080),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		DBPath:             getEnv("DB_PATH", "tasks.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DBDebug:            getEnvBool("DB_DEBUG", false),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		CachePrefix:        getEnv("CACHE_PREFIX", "task:"),
		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
