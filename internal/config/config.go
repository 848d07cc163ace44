package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Notification NotificationConfig `mapstructure:"notification"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Sweeper      SweeperConfig      `mapstructure:"sweeper"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type NotificationConfig struct {
	EmailEnabled bool   `mapstructure:"NOTIFICATION_EMAIL_ENABLED"`
	SMSEnabled   bool   `mapstructure:"NOTIFICATION_SMS_ENABLED"`
	FromEmail    string `mapstructure:"NOTIFICATION_FROM_EMAIL"`
	MailAPIURL   string `mapstructure:"MAIL_API_URL"`
	MailAPIKey   string `mapstructure:"MAIL_API_KEY"`
	SMSAPIURL    string `mapstructure:"SMS_API_URL"`
	SMSAPIKey    string `mapstructure:"SMS_API_KEY"`
	SMSSender    string `mapstructure:"SMS_SENDER_ID"`
	SendTimeout  string `mapstructure:"NOTIFICATION_SEND_TIMEOUT"`
}

type QueueConfig struct {
	Workers     int    `mapstructure:"QUEUE_WORKERS"`
	BufferSize  int    `mapstructure:"QUEUE_BUFFER_SIZE"`
	MaxAttempts int    `mapstructure:"QUEUE_MAX_ATTEMPTS"`
	BackoffBase string `mapstructure:"QUEUE_BACKOFF_BASE"`
}

type SweeperConfig struct {
	ScheduledSpec     string `mapstructure:"SWEEP_SCHEDULED_SPEC"`
	DailyReminderSpec string `mapstructure:"SWEEP_DAILY_REMINDER_SPEC"`
	CleanupSpec       string `mapstructure:"SWEEP_CLEANUP_SPEC"`
	ReconcileSpec     string `mapstructure:"SWEEP_RECONCILE_SPEC"`
	LogRetentionDays  int    `mapstructure:"SWEEP_LOG_RETENTION_DAYS"`
	PendingTimeout    string `mapstructure:"SWEEP_PENDING_TIMEOUT"`
	ReminderDedup     string `mapstructure:"SWEEP_REMINDER_DEDUP_WINDOW"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("NOTIFICATION_EMAIL_ENABLED", true)
	viper.SetDefault("NOTIFICATION_SMS_ENABLED", true)
	viper.SetDefault("NOTIFICATION_FROM_EMAIL", "no-reply@iou-engine.local")
	viper.SetDefault("NOTIFICATION_SEND_TIMEOUT", "10s")
	viper.SetDefault("QUEUE_WORKERS", 8)
	viper.SetDefault("QUEUE_BUFFER_SIZE", 1024)
	viper.SetDefault("QUEUE_MAX_ATTEMPTS", 3)
	viper.SetDefault("QUEUE_BACKOFF_BASE", "1m")
	viper.SetDefault("SWEEP_SCHEDULED_SPEC", "0 */5 * * * *")
	viper.SetDefault("SWEEP_DAILY_REMINDER_SPEC", "0 0 9 * * *")
	viper.SetDefault("SWEEP_CLEANUP_SPEC", "0 0 2 * * MON")
	viper.SetDefault("SWEEP_RECONCILE_SPEC", "0 */30 * * * *")
	viper.SetDefault("SWEEP_LOG_RETENTION_DAYS", 90)
	viper.SetDefault("SWEEP_PENDING_TIMEOUT", "1h")
	viper.SetDefault("SWEEP_REMINDER_DEDUP_WINDOW", "24h")

	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Queue.Workers <= 0 {
		return fmt.Errorf("QUEUE_WORKERS must be greater than 0")
	}

	if c.Queue.MaxAttempts <= 0 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be greater than 0")
	}

	if c.Sweeper.LogRetentionDays <= 0 {
		return fmt.Errorf("SWEEP_LOG_RETENTION_DAYS must be greater than 0")
	}

	for name, value := range map[string]string{
		"DATABASE_CONN_MAX_LIFETIME":  c.Database.ConnMaxLifetime,
		"NOTIFICATION_SEND_TIMEOUT":   c.Notification.SendTimeout,
		"QUEUE_BACKOFF_BASE":          c.Queue.BackoffBase,
		"SWEEP_PENDING_TIMEOUT":       c.Sweeper.PendingTimeout,
		"SWEEP_REMINDER_DEDUP_WINDOW": c.Sweeper.ReminderDedup,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", name, err)
		}
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetConnMaxLifetime returns the database connection lifetime as duration
func (c *Config) GetConnMaxLifetime() time.Duration {
	d, _ := time.ParseDuration(c.Database.ConnMaxLifetime)
	return d
}

// GetSendTimeout returns the notification send timeout as duration
func (c *Config) GetSendTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Notification.SendTimeout)
	return d
}

// GetBackoffBase returns the queue retry backoff base as duration
func (c *Config) GetBackoffBase() time.Duration {
	d, _ := time.ParseDuration(c.Queue.BackoffBase)
	return d
}

// GetPendingTimeout returns the stuck-pending reconciliation threshold
func (c *Config) GetPendingTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Sweeper.PendingTimeout)
	return d
}

// GetReminderDedupWindow returns the reminder dedup window as duration
func (c *Config) GetReminderDedupWindow() time.Duration {
	d, _ := time.ParseDuration(c.Sweeper.ReminderDedup)
	return d
}
