package database

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Driver selects the storage backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// IsValid reports whether d is a supported driver.
func (d Driver) IsValid() bool {
	switch d {
	case DriverMemory, DriverSQLite, DriverPostgres:
		return true
	}
	return false
}

// Config holds database configuration
type Config struct {
	Driver     Driver
	SQLitePath string

	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewConfig creates a new database configuration
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, we'll use defaults or environment variables
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Driver:     Driver(getEnv("STORAGE_DRIVER", string(DriverMemory))),
		SQLitePath: getEnv("SQLITE_PATH", "tripbudget.db"),
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       getEnv("DB_PORT", "5432"),
		User:       getEnv("DB_USER", "tripbudget"),
		Password:   getEnv("DB_PASSWORD", "tripbudget"),
		DBName:     getEnv("DB_NAME", "tripbudget"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
	}
	if !cfg.Driver.IsValid() {
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Driver)
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MigrateURL returns the PostgreSQL URL golang-migrate expects.
func (c *Config) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
