package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"production"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	Redis    RedisConfig
	Database DatabaseConfig
	Maps     MapsConfig
	Email    EmailConfig
	Owner    OwnerConfig
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,required"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"24h"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST,required"`
	Port            int           `env:"DB_PORT,required"`
	User            string        `env:"DB_USER,required"`
	Password        string        `env:"DB_PASSWORD,required"`
	Name            string        `env:"DB_NAME,required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

// MapsConfig holds the mapping provider credential. The key is referrer
// restricted at the provider, which is the only reason /api/maps-key may
// hand it to the browser. Empty key means degraded mode (manual distance).
type MapsConfig struct {
	APIKey         string        `env:"GOOGLE_MAPS_API_KEY"`
	RequestTimeout time.Duration `env:"MAPS_REQUEST_TIMEOUT" envDefault:"10s"`
}

type EmailConfig struct {
	APIKey      string `env:"RESEND_API_KEY"`
	FromAddress string `env:"EMAIL_FROM" envDefault:"Déménagement Boréal <soumission@demenagementboreal.ca>"`
}

// OwnerConfig is where quote-request notifications end up.
type OwnerConfig struct {
	Email          string `env:"OWNER_EMAIL,required"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
