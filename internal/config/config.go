package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	BotToken string
	Database DatabaseConfig
	API      APIConfig
	Gyms     GymsConfig

	// MetricsAddr is the listen address of the /metrics endpoint, empty disables it
	MetricsAddr        string
	CacheRetentionDays int
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// APIConfig points at the MyFitGuide backend
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GymsConfig configures the nearby gyms search
type GymsConfig struct {
	OverpassURL string
	RadiusM     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("API_TIMEOUT must be a positive duration")
	}
	radius, err := strconv.Atoi(getEnv("GYM_SEARCH_RADIUS_M", "2000"))
	if err != nil || radius <= 0 {
		return nil, fmt.Errorf("GYM_SEARCH_RADIUS_M must be a positive integer")
	}
	retention, err := strconv.Atoi(getEnv("CACHE_RETENTION_DAYS", "60"))
	if err != nil || retention <= 0 {
		return nil, fmt.Errorf("CACHE_RETENTION_DAYS must be a positive integer")
	}

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "myfitguide"),
			User:     getEnv("DB_USER", "myfitguide"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:3000/MyFitGuide"),
			Timeout: timeout,
		},
		Gyms: GymsConfig{
			OverpassURL: getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			RadiusM:     radius,
		},
		MetricsAddr:        lookupEnv("METRICS_ADDR", ":9090"),
		CacheRetentionDays: retention,
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv differs from getEnv in that an explicitly empty value is kept
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
