package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. Everything comes from
// the environment; cmd/server loads a .env file first when one is present.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseDatabaseURL              string `mapstructure:"FIREBASE_DATABASE_URL"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	ClientURL string `mapstructure:"CLIENT_URL"`

	// SMTP relay for approval/invitation/device mails. Leaving SMTP_HOST
	// empty disables outbound email; state transitions still happen, mail is
	// best-effort by design.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// Optional Redis backing for the device-approval rate limiter. When
	// unset the limiter keeps its window in process memory.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Optional AMQP fan-out of security events.
	AMQPUrl string `mapstructure:"AMQP_URL"`

	DeviceTokenTTLMinutes    int `mapstructure:"DEVICE_TOKEN_TTL_MINUTES"`
	DeviceRateLimit          int `mapstructure:"DEVICE_RATE_LIMIT"`
	DeviceRateWindowHours    int `mapstructure:"DEVICE_RATE_WINDOW_HOURS"`
	InviteTTLDays            int `mapstructure:"INVITE_TTL_DAYS"`
	AccessCodeLength         int `mapstructure:"ACCESS_CODE_LENGTH"`
	GuardActivityListLimit   int `mapstructure:"GUARD_ACTIVITY_LIST_LIMIT"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DEVICE_TOKEN_TTL_MINUTES", 30)
	viper.SetDefault("DEVICE_RATE_LIMIT", 5)
	viper.SetDefault("DEVICE_RATE_WINDOW_HOURS", 24)
	viper.SetDefault("INVITE_TTL_DAYS", 7)
	viper.SetDefault("ACCESS_CODE_LENGTH", 8)
	viper.SetDefault("GUARD_ACTIVITY_LIST_LIMIT", 50)
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("REDIS_DB", 0)

	for _, key := range []string{
		"PORT", "GIN_MODE",
		"FIREBASE_PROJECT_ID", "FIREBASE_DATABASE_URL",
		"GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"CLIENT_URL",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"AMQP_URL",
		"DEVICE_TOKEN_TTL_MINUTES", "DEVICE_RATE_LIMIT", "DEVICE_RATE_WINDOW_HOURS",
		"INVITE_TTL_DAYS", "ACCESS_CODE_LENGTH", "GUARD_ACTIVITY_LIST_LIMIT",
	} {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.FirebaseDatabaseURL == "" {
		return nil, errors.New("FIREBASE_DATABASE_URL is required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.DeviceTokenTTLMinutes <= 0 {
		return nil, errors.New("DEVICE_TOKEN_TTL_MINUTES must be positive")
	}
	if cfg.DeviceRateLimit <= 0 {
		return nil, errors.New("DEVICE_RATE_LIMIT must be positive")
	}
	if cfg.AccessCodeLength < 6 {
		return nil, errors.New("ACCESS_CODE_LENGTH must be at least 6")
	}

	return &cfg, nil
}
