package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerHost string `env:"SERVER_HOST" envDefault:"localhost"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	FinnhubAPIKey string `env:"FINNHUB_API_KEY,required,notEmpty"`
	YahooBaseURL  string `env:"YAHOO_BASE_URL" envDefault:"http://localhost:8000"`

	// CacheBackend selects "memory" or "redis".
	CacheBackend  string `env:"CACHE_BACKEND" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// DBDriver selects "postgres", "oracle" or "memory".
	DBDriver string `env:"DB_DRIVER" envDefault:"memory"`
	DBDSN    string `env:"DB_DSN" envDefault:""`

	CacheWarmInterval time.Duration `env:"CACHE_WARM_INTERVAL" envDefault:"60s"`
}

func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	switch cfg.CacheBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.CacheBackend)
	}

	switch cfg.DBDriver {
	case "memory":
	case "postgres", "oracle":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for driver %q", cfg.DBDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}
