package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Spam      SpamConfig
	Retention RetentionConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name     string
	Version  string
	Debug    bool
	Port     string
	Host     string
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds staff authentication configuration
type AuthConfig struct {
	SecretKey          string
	TokenExpiryMinutes int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// EmailConfig holds owner notification configuration.
// Resend is the primary channel, SMTP the secondary one.
type EmailConfig struct {
	OwnerEmail    string
	FromName      string
	SubjectPrefix string
	MaxPerMinute  int

	ResendAPIKey string
	ResendFrom   string

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string
}

// RateLimitConfig holds the contact form rate limit policy
type RateLimitConfig struct {
	RedisURL      string
	Window        time.Duration
	MaxRequests   int
	SweepInterval time.Duration
}

// SpamConfig holds spam filter configuration
type SpamConfig struct {
	RulesFile string
}

// RetentionConfig holds the submission retention policy
type RetentionConfig struct {
	Days int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "Mr X Studio API"),
			Version:  getEnv("APP_VERSION", "1.0.0"),
			Debug:    getEnvAsBool("DEBUG", false),
			Port:     getEnv("PORT", "8000"),
			Host:     getEnv("HOST", "0.0.0.0"),
			LogLevel: getEnv("LOG_LEVEL", "INFO"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///./mrxstudio.db"),
		},
		Auth: AuthConfig{
			SecretKey:          getEnv("SECRET_KEY", ""),
			TokenExpiryMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			OwnerEmail:    getEnv("OWNER_EMAIL", ""),
			FromName:      getEnv("EMAIL_FROM_NAME", "Mohammed (Mr X) Studio"),
			SubjectPrefix: getEnv("EMAIL_SUBJECT_PREFIX", "New Contact Form Submission from"),
			MaxPerMinute:  getEnvAsInt("NOTIFY_MAX_PER_MINUTE", 30),
			ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
			ResendFrom:    getEnv("RESEND_FROM_EMAIL", "noreply@resend.dev"),
			SMTPHost:      getEnv("SMTP_HOST", ""),
			SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:  getEnv("SMTP_USER", ""),
			SMTPPassword:  getEnv("SMTP_PASS", ""),
			SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", ""),
		},
		RateLimit: RateLimitConfig{
			RedisURL:      getEnv("REDIS_URL", ""),
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			MaxRequests:   getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 5),
			SweepInterval: getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		},
		Spam: SpamConfig{
			RulesFile: getEnv("SPAM_RULES_FILE", ""),
		},
		Retention: RetentionConfig{
			Days: getEnvAsInt("RETENTION_DAYS", 60),
		},
	}

	if cfg.Email.SMTPFromEmail == "" {
		cfg.Email.SMTPFromEmail = cfg.Email.SMTPUsername
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be greater than 0")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be greater than 0")
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be greater than 0")
	}
	if cfg.RateLimit.SweepInterval <= 0 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL must be greater than 0")
	}
	if cfg.Email.MaxPerMinute <= 0 {
		return fmt.Errorf("NOTIFY_MAX_PER_MINUTE must be greater than 0")
	}
	if cfg.Retention.Days <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be greater than 0")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
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
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://")
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}

// ResendEnabled reports whether the primary notification channel is configured
func (c *EmailConfig) ResendEnabled() bool {
	return c.ResendAPIKey != "" && c.OwnerEmail != ""
}

// SMTPEnabled reports whether the secondary notification channel is configured
func (c *EmailConfig) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.OwnerEmail != ""
}
