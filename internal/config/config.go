package config

import (
	"fmt"
	"os"
	"time"
	// база часовых поясов для образов без /usr/share/zoneinfo
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	HTTPPort  string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Хранилище состояния
	StateBackend string `env:"STATE_BACKEND" envDefault:"postgres"`
	StateKey     string `env:"STATE_KEY" envDefault:"alertaBH_data"`
	DatabaseURL  string `env:"DATABASE_URL"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"alertabh.db"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Auth Config
	AuthAccounts []string      `env:"AUTH_ACCOUNTS" envSeparator:","`
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"12h"`

	// Geocoder Config
	GeocoderURL       string        `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org"`
	GeocoderUserAgent string        `env:"GEOCODER_USER_AGENT" envDefault:"alertabh/1.0"`
	GeocoderTimeout   time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"10s"`
	GeocoderCacheTTL  time.Duration `env:"GEOCODER_CACHE_TTL" envDefault:"24h"`
	CitySuffix        string        `env:"CITY_SUFFIX" envDefault:"Belo Horizonte, MG, Brasil"`

	// Domain Config
	Timezone          string        `env:"TIMEZONE" envDefault:"America/Sao_Paulo"`
	ReportSubmitDelay time.Duration `env:"REPORT_SUBMIT_DELAY" envDefault:"0s"`
	FuelCatalogPath   string        `env:"FUEL_CATALOG_PATH"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.StateBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for postgres backend")
		}
	case BackendRedis:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH environment variable is required for sqlite backend")
		}
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if len(c.AuthAccounts) == 0 {
		return fmt.Errorf("AUTH_ACCOUNTS environment variable is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}

// Location возвращает часовой пояс города
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
