// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"marketplace-core/pkg/db" // Import db package for its Config struct

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// RedisConfig configures the notification publisher. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort         string
	LogLevel           string
	StoreDriver        string
	AutoMigrate        bool
	DB                 db.Config
	Redis              RedisConfig
	JWTSecret          string // required by the HTTP API only
	CORSAllowedOrigins []string
	QuoteSweepInterval time.Duration // 0 disables the expiry sweeper
}

// LoadConfig loads configuration from environment variables, after merging a .env file
// from the working directory when one exists.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file, relying on environment", "error", err)
	}

	dbPort, err := getInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	autoMigrate, err := getBool("AUTO_MIGRATE", false)
	if err != nil {
		return nil, err
	}
	sweep, err := time.ParseDuration(getEnv("QUOTE_SWEEP_INTERVAL", "0s"))
	if err != nil || sweep < 0 {
		return nil, fmt.Errorf("invalid QUOTE_SWEEP_INTERVAL: %q", os.Getenv("QUOTE_SWEEP_INTERVAL"))
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres))
	if driver != StoreDriverPostgres && driver != StoreDriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", driver, StoreDriverPostgres, StoreDriverMemory)
	}

	return &AppConfig{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: driver,
		AutoMigrate: autoMigrate,
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "marketplacedb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		QuoteSweepInterval: sweep,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
