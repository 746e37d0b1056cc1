package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Payment gateway configuration
	PayFast PayFastConfig
	Stripe  StripeConfig

	// Infrastructure
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig

	// Notifications
	SMS  SMSConfig
	SMTP SMTPConfig

	// Background maintenance jobs
	Scheduler SchedulerConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	PublicURL   string // base URL used in emails and gateway callbacks
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost        int
	AuthRatePerMinute int
	AuthRateBurst     int
	PasswordResetTTL  time.Duration
	EnableAuditLog    bool
}

// PayFastConfig holds PayFast redirect/notify configuration
type PayFastConfig struct {
	Enabled     bool
	Sandbox     bool
	MerchantID  string
	MerchantKey string
	Passphrase  string // SECRET - used only for signatures
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
}

// ProcessURL returns the PayFast hosted payment page for the configured mode
func (p PayFastConfig) ProcessURL() string {
	if p.Sandbox {
		return "https://sandbox.payfast.co.za/eng/process"
	}
	return "https://www.payfast.co.za/eng/process"
}

// StripeConfig holds Stripe configuration
type StripeConfig struct {
	SecretKey string
	Currency  string
}

// RedisConfig holds cache configuration. Empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	RoomTTL  time.Duration
}

// RabbitMQConfig holds event publishing configuration. Empty URL disables publishing.
type RabbitMQConfig struct {
	URL string
}

// SMSConfig holds SMS gateway configuration
type SMSConfig struct {
	Mode     string // "dev" logs messages, "production" sends them
	APIURL   string
	Username string
	Password string
	Mask     string

	// CountryCode is applied to local customer numbers ("082..." -> "+2782...")
	CountryCode string
}

// SMTPConfig holds outgoing mail configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration // dial and per-command limit
}

// SchedulerConfig holds the maintenance job configuration
type SchedulerConfig struct {
	Enabled        bool
	AuditRetention time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			PublicURL:   getEnv("PUBLIC_URL", "http://localhost:4200"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:4200"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:        getEnvAsInt("BCRYPT_COST", 12),
			AuthRatePerMinute: getEnvAsInt("AUTH_RATE_PER_MINUTE", 20),
			AuthRateBurst:     getEnvAsInt("AUTH_RATE_BURST", 5),
			PasswordResetTTL:  time.Duration(getEnvAsInt("PASSWORD_RESET_TTL_MINUTES", 30)) * time.Minute,
			EnableAuditLog:    getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
		},
		PayFast: PayFastConfig{
			Enabled:     getEnvAsBool("PAYFAST_ENABLED", true),
			Sandbox:     getEnvAsBool("PAYFAST_SANDBOX", true),
			MerchantID:  getEnv("PAYFAST_MERCHANT_ID", ""),
			MerchantKey: getEnv("PAYFAST_MERCHANT_KEY", ""),
			Passphrase:  getEnv("PAYFAST_PASSPHRASE", ""),
			ReturnURL:   getEnv("PAYFAST_RETURN_URL", ""),
			CancelURL:   getEnv("PAYFAST_CANCEL_URL", ""),
			NotifyURL:   getEnv("PAYFAST_NOTIFY_URL", ""),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:  strings.ToLower(getEnv("STRIPE_CURRENCY", "zar")),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			RoomTTL:  time.Duration(getEnvAsInt("ROOM_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		SMS: SMSConfig{
			Mode:     getEnv("SMS_MODE", "dev"),
			APIURL:   getEnv("DIALOG_SMS_API_URL", "https://e-sms.dialog.lk/api/v2"),
			Username: getEnv("DIALOG_SMS_USERNAME", ""),
			Password: getEnv("DIALOG_SMS_PASSWORD", ""),
			Mask:     getEnv("DIALOG_SMS_MASK", ""),

			CountryCode: getEnv("PHONE_COUNTRY_CODE", "27"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "reservations@lagoonresort.example"),
			Timeout:  time.Duration(getEnvAsInt("SMTP_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:        getEnvAsBool("ENABLE_SCHEDULER", true),
			AuditRetention: time.Duration(getEnvAsInt("AUDIT_RETENTION_DAYS", 180)) * 24 * time.Hour,
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.PayFast.Enabled {
		if c.PayFast.MerchantID == "" || c.PayFast.MerchantKey == "" {
			return fmt.Errorf("PAYFAST_MERCHANT_ID and PAYFAST_MERCHANT_KEY are required when PayFast is enabled")
		}
		if c.PayFast.NotifyURL == "" {
			return fmt.Errorf("PAYFAST_NOTIFY_URL is required when PayFast is enabled")
		}
	}

	if c.SMS.Mode != "dev" && c.SMS.Mode != "production" {
		return fmt.Errorf("invalid SMS mode: %s (must be 'dev' or 'production')", c.SMS.Mode)
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
