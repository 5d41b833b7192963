// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	// Environment
	Environment string
	LogLevel    string
	LogFormat   string

	// Server
	Port        string
	FrontendURL string

	// Collaborators. Empty URLs disable the component.
	RedisURL    string
	DatabaseURL string

	// RunMigrations applies the embedded schema on startup.
	RunMigrations bool

	// Security
	JWTSecret  string
	SessionTTL time.Duration

	// Limits
	MaxRooms       int
	MaxConnections int

	// Room timers
	RoundEndDelay       time.Duration
	PabloWindowDuration time.Duration
	SpyRevealDuration   time.Duration

	// HostPolicy is "earliest" or "random".
	HostPolicy string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		RedisURL:      getEnv("REDIS_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),

		JWTSecret:  getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTTL: getEnvDuration("SESSION_TTL", time.Hour),

		MaxRooms:       getEnvInt("MAX_ROOMS", 50),
		MaxConnections: getEnvInt("MAX_CONNECTIONS", 300),

		RoundEndDelay:       getEnvDuration("ROUND_END_DELAY", 30*time.Second),
		PabloWindowDuration: getEnvDuration("PABLO_WINDOW_DURATION", 15*time.Second),
		SpyRevealDuration:   getEnvDuration("SPY_REVEAL_DURATION", 5*time.Second),

		HostPolicy: strings.ToLower(getEnv("HOST_POLICY", "earliest")),
	}
}

// IsProduction reports whether the server runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
