package config

import (
	"fmt"
	"net/url"
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings"
	"time"

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // Database driver: mysql, postgres or sqlite
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	SQLitePath string // Database file when DBDriver is sqlite
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	IdleTimeout time.Duration // Inactivity window before a session ends
	CacheTTL    time.Duration // Lifetime of cached dashboard figures

	AdminUsername string // Bootstrap administrator login
	AdminPassword string // Bootstrap administrator password

	GeminiAPIKey string // API key for the advice service, empty disables it
	GeminiModel  string // Model used for advice and chat

	AMQPURL      string // Optional broker receiving change events
	AMQPExchange string // Exchange change events are published to
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),                      // Application port
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),   // Database driver
		DBUser:     os.Getenv("DB_USER"),                            // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),                        // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),                  // Database host
		DBPort:     os.Getenv("DB_PORT"),                            // Database port
		DBName:     os.Getenv("DB_NAME"),                            // Database name
		SQLitePath: getEnv("SQLITE_PATH", "./data/smart_wallet.db"), // SQLite file
		JWTSecret:  os.Getenv("JWT_SECRET"),                         // JWT secret key
		RedisAddr:  getEnv("REDIS_ADDR", "127.0.0.1:6379"),          // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),                         // Redis password
		RedisDB:    getEnvInt("REDIS_DB", 0),                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true",                  // Is production environment

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 30*time.Minute), // Session inactivity window
		CacheTTL:    getEnvDuration("CACHE_TTL", 60*time.Second),    // Dashboard cache lifetime

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),    // Bootstrap administrator
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"), // Bootstrap administrator password

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),                       // Advice service key
		GeminiModel:  getEnv("GEMINI_MODEL", "models/gemini-2.0-flash"), // Advice model

		AMQPURL:      os.Getenv("AMQP_URL"),                           // Change event broker
		AMQPExchange: getEnv("AMQP_EXCHANGE", "smart_wallet.changes"), // Change event exchange
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.AppPort); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number between 1 and 65535", c.AppPort))
	}

	switch c.DBDriver {
	case "mysql", "postgres":
		if c.DBName == "" {
			errors = append(errors, "DB_NAME is required for the "+c.DBDriver+" driver")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH is required for the sqlite driver")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid DB_DRIVER '%s': must be one of mysql, postgres, sqlite", c.DBDriver))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if c.IsProd && len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET must be at least 32 characters in production")
	}

	if c.IdleTimeout < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid idle timeout %v: must be at least 1 minute", c.IdleTimeout))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, port, c.DBUser, c.DBPassword, c.DBName)
	case "sqlite":
		return c.SQLitePath
	default:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
