package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config is read once at startup from the process environment.
type Config struct {
	Port      string `env:"PORT" envDefault:"3001"`
	JWTSecret string `env:"JWT_SECRET,required,unset"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"taskmanager"`

	DBHost           string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort           string `env:"DB_PORT" envDefault:"3306"`
	DBUser           string `env:"DB_USER" envDefault:"root"`
	DBPass           string `env:"DB_PASS"`
	DBName           string `env:"DB_NAME" envDefault:"taskmanager"`
	DBConnectRetries int    `env:"DB_CONNECT_RETRIES" envDefault:"10"`
	MigrationRetries int    `env:"MIGRATION_RETRIES" envDefault:"3"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"task-topic"`

	RedisAddr string  `env:"REDIS_ADDR"`
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"0"`
	RateBurst int     `env:"RATE_BURST" envDefault:"3"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("RATE_BURST must be at least 1, got %d", c.RateBurst)
	}
	return nil
}

// MySQLDSN builds the go-sql-driver DSN from the DB_* variables.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit > 0
}
