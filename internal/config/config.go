package config

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from an optional
// config.yml and environment variables.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	MySQLDSN    string `mapstructure:"MYSQL_DSN"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	RedisDB     int    `mapstructure:"REDIS_DB"`
	RedisPass   string `mapstructure:"REDIS_PASSWORD"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	SwaggerHost string `mapstructure:"SWAGGER_HOST"`
	ResetDB     bool   `mapstructure:"RESET_DB"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// SiteURL is the public base URL embedded in activation links.
	SiteURL string `mapstructure:"SITE_URL"`

	ActivationTokenTTL time.Duration `mapstructure:"ACTIVATION_TOKEN_TTL"`
	AccessTokenTTL     time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL    time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":          "8080",
	"MYSQL_DSN":            "user:password@tcp(localhost:3306)/ideas?charset=utf8mb4&parseTime=True&loc=Local",
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_DB":             0,
	"REDIS_PASSWORD":       "",
	"JWT_SECRET":           "change-me",
	"SWAGGER_HOST":         "",
	"RESET_DB":             false,
	"LOG_LEVEL":            "info",
	"SITE_URL":             "http://localhost:8080",
	"ACTIVATION_TOKEN_TTL": "72h",
	"ACCESS_TOKEN_TTL":     "15m",
	"REFRESH_TOKEN_TTL":    "168h",
	"SMTP_HOST":            "",
	"SMTP_PORT":            587,
	"SMTP_USERNAME":        "",
	"SMTP_PASSWORD":        "",
	"MAIL_FROM":            "noreply@ideas.local",
}

// Load builds Config from config.yml (if present) and environment with
// sensible defaults.
func Load() *Config {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			log.Fatalf("read config file: %v", err)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		log.Fatalf("decode config: %v", err)
	}
	return cfg
}

func fromViper(v *viper.Viper) (*Config, error) {
	// Defaults double as the key list AutomaticEnv needs for Unmarshal.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
