package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string // file path for sqlite
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Weather ingress configuration. The periodic job only starts when an
	// API key and an interval are configured.
	WeatherBaseURL   string
	WeatherAPIKey    string
	IngressLatitude  float64
	IngressLongitude float64
	IngressInterval  time.Duration
}

// Load loads configuration from environment variables, reading a .env file
// first when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	interval, err := time.ParseDuration(getEnv("INGRESS_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGRESS_INTERVAL: %w", err)
	}

	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		DBType:            getEnv("DB_TYPE", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		WeatherBaseURL:    getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org/data/3.0/onecall/timemachine"),
		WeatherAPIKey:     getEnv("WEATHER_API_KEY", ""),
		IngressLatitude:   getEnvAsFloat("INGRESS_LATITUDE", 0),
		IngressLongitude:  getEnvAsFloat("INGRESS_LONGITUDE", 0),
		IngressInterval:   interval,
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}

	return cfg, nil
}

// IngressEnabled reports whether the periodic weather ingress job should run.
func (c *Config) IngressEnabled() bool {
	return c.WeatherAPIKey != "" && c.IngressInterval > 0
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
