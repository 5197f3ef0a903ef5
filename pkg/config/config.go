package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/richxcame/demand-forecasting/pkg/validation"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Forecast ForecastConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// NATSConfig holds NATS configuration for forecast events
type NATSConfig struct {
	URL     string
	Subject string
	Enabled bool
}

// ForecastConfig holds the parameters of the forecasting sweep
type ForecastConfig struct {
	TimeStepMinutes    int   `validate:"required,gt=0,lte=1440"`
	OperatingStartHour int   `validate:"gte=0,lt=24"`
	OperatingEndHour   int   `validate:"gtfield=OperatingStartHour,lte=24"`
	TrainHorizon       int   `validate:"required,gt=0"`
	SideLengths        []int `validate:"required,min=1,dive,gt=0"`
	// Cutoff is the first instant whose orders are excluded; zero means no cutoff.
	Cutoff   time.Time
	CacheTTL time.Duration
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cutoff, err := getEnvAsDate("FORECAST_CUTOFF", time.Date(2017, time.February, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}

	sideLengths, err := getEnvAsIntSlice("FORECAST_SIDE_LENGTHS", []int{707, 1000, 1414})
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "demand_forecasting"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 1),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_FORECAST_SUBJECT", "forecast.created"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Forecast: ForecastConfig{
			TimeStepMinutes:    getEnvAsInt("FORECAST_TIME_STEP", 60),
			OperatingStartHour: getEnvAsInt("FORECAST_SERVICE_START", 11),
			OperatingEndHour:   getEnvAsInt("FORECAST_SERVICE_END", 23),
			TrainHorizon:       getEnvAsInt("FORECAST_TRAIN_HORIZON", 8),
			SideLengths:        sideLengths,
			Cutoff:             cutoff,
			CacheTTL:           time.Duration(getEnvAsInt("FORECAST_CACHE_TTL_HOURS", 24*7)) * time.Hour,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the forecast parameters
func (c *Config) Validate() error {
	if err := validation.Struct(&c.Forecast); err != nil {
		return fmt.Errorf("invalid forecast config: %w", err)
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form, as expected by migrate
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// TimeStep returns the bucket length as a duration
func (c *ForecastConfig) TimeStep() time.Duration {
	return time.Duration(c.TimeStepMinutes) * time.Minute
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsIntSlice(key string, defaultValue []int) ([]int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}

	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		values = append(values, value)
	}
	return values, nil
}

// getEnvAsDate parses a YYYY-MM-DD value; "none" disables the date.
func getEnvAsDate(key string, defaultValue time.Time) (time.Time, error) {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "":
		return defaultValue, nil
	case "none":
		return time.Time{}, nil
	}

	value, err := time.Parse("2006-01-02", valueStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
