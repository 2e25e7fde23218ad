package config

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	IsolationReadCommitted = "read_committed"
	IsolationSerializable  = "serializable"
)

type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	AccessSecret string
}

type PaymentsConfig struct {
	LockTimeout  time.Duration
	Isolation    string
	MaxRetries   int
	RetryBackoff time.Duration
}

// IsolationLevel maps the configured name to a database/sql level.
func (c PaymentsConfig) IsolationLevel() sql.IsolationLevel {
	if c.Isolation == IsolationSerializable {
		return sql.LevelSerializable
	}
	return sql.LevelReadCommitted
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Payments    PaymentsConfig
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 3001)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("HTTP_CORS_ORIGINS", "*")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("PAYMENTS_LOCK_TIMEOUT", "5s")
	v.SetDefault("PAYMENTS_ISOLATION", IsolationReadCommitted)
	v.SetDefault("PAYMENTS_MAX_RETRIES", 2)
	v.SetDefault("PAYMENTS_RETRY_BACKOFF", "50ms")

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host:            v.GetString("HTTP_HOST"),
			Port:            v.GetInt("HTTP_PORT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
			CORSOrigins:     parseList(v.GetString("HTTP_CORS_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Payments: PaymentsConfig{
			LockTimeout:  v.GetDuration("PAYMENTS_LOCK_TIMEOUT"),
			Isolation:    strings.ToLower(strings.TrimSpace(v.GetString("PAYMENTS_ISOLATION"))),
			MaxRetries:   v.GetInt("PAYMENTS_MAX_RETRIES"),
			RetryBackoff: v.GetDuration("PAYMENTS_RETRY_BACKOFF"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		if cfg.IsProduction() {
			cfg.LogLevel = "info"
		} else {
			cfg.LogLevel = "debug"
		}
	}
	if cfg.Payments.Isolation == "" {
		cfg.Payments.Isolation = IsolationReadCommitted
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	switch cfg.Payments.Isolation {
	case IsolationReadCommitted, IsolationSerializable:
	default:
		return fmt.Errorf("PAYMENTS_ISOLATION must be %q or %q", IsolationReadCommitted, IsolationSerializable)
	}
	if cfg.Payments.MaxRetries < 0 {
		return fmt.Errorf("PAYMENTS_MAX_RETRIES must not be negative")
	}
	if cfg.Payments.LockTimeout < 0 || cfg.Payments.RetryBackoff < 0 {
		return fmt.Errorf("payment timeouts must not be negative")
	}
	if cfg.DB.MaxOpenConns < 0 || cfg.DB.MaxIdleConns < 0 {
		return fmt.Errorf("DB pool sizes must not be negative")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
