package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	LogLevel                  string
	LogFormat                 string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	Database                  DatabaseConfig
	Seed                      SeedConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	Username     string
	Password     string
	Name         string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// SeedConfig holds the bootstrap admin account created by the seed command.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// LoadConfig loads configuration from environment variables.
// Call godotenv.Load before this if a .env file should be honoured.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("ORIGIN", "http://localhost:5173")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("JWT_SECRET", "default_jwt_secret")
	v.SetDefault("JWT_REFRESH_SECRET", "default_refresh_secret")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 15)
	v.SetDefault("JWT_REFRESH_EXPIRATION_HOURS", 168) // 7 days
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "hospital")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@hospital.local")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")

	dbConfig := DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetString("DB_PORT"),
		Username:     v.GetString("DB_USERNAME"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	switch dbConfig.Driver {
	case DriverMySQL:
		if dbConfig.Port == "" {
			dbConfig.Port = "3306"
		}
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	case DriverPostgres:
		if dbConfig.Port == "" {
			dbConfig.Port = "5432"
		}
		dbConfig.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			dbConfig.Host, dbConfig.Port, dbConfig.Username, dbConfig.Password, dbConfig.Name)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", dbConfig.Driver)
	}
	if url := v.GetString("DATABASE_URL"); url != "" {
		dbConfig.DSN = url
	}

	cfg := &Config{
		Port:                      v.GetString("PORT"),
		Origin:                    v.GetString("ORIGIN"),
		Environment:               v.GetString("APP_ENV"),
		LogLevel:                  v.GetString("LOG_LEVEL"),
		LogFormat:                 v.GetString("LOG_FORMAT"),
		JWTSecret:                 v.GetString("JWT_SECRET"),
		JWTRefreshSecret:          v.GetString("JWT_REFRESH_SECRET"),
		JWTExpirationMinutes:      v.GetInt("JWT_EXPIRATION_MINUTES"),
		JWTRefreshExpirationHours: v.GetInt("JWT_REFRESH_EXPIRATION_HOURS"),
		Database:                  dbConfig,
		Seed: SeedConfig{
			AdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
			AdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
		},
	}

	if cfg.JWTExpirationMinutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %d", cfg.JWTExpirationMinutes)
	}
	if cfg.JWTRefreshExpirationHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %d", cfg.JWTRefreshExpirationHours)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
