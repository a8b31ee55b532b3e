package app

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
)

// Supported projection store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	DatabaseDriver string        `yaml:"database_driver" env:"USERS_DATABASE_DRIVER" env-default:"sqlite"`
	DatabaseFile   string        `yaml:"database_file" env:"USERS_DATABASE_FILE" env-default:"users.db"`
	DatabaseURL    string        `yaml:"database_url" env:"USERS_DATABASE_URL"`
	AMQPURL        string        `yaml:"amqp_url" env:"USERS_AMQP_URL"`
	Queue          string        `yaml:"queue" env:"USERS_QUEUE" env-default:"user_service_queue"`
	HandlerTimeout time.Duration `yaml:"handler_timeout" env:"USERS_HANDLER_TIMEOUT" env-default:"30s"`

	// Shared with the auth service so both verify the same tokens and see
	// the same revocations.
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	RedisURL  string `yaml:"redis_url" env:"AUTH_REDIS_URL"`

	Env                 string        `yaml:"env" env:"ENV" env-default:"dev"`
	LogLevel            string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat           string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	Port                int           `yaml:"port" env:"PORT" env-default:"8081"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s"`
}

// LoadConfig reads the YAML file named by CONFIG_PATH when set, otherwise the
// environment alone. Environment variables override file values.
func LoadConfig() (Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < jwtx.MinSecretLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength)
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return fmt.Errorf("USERS_DATABASE_FILE is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("USERS_DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("USERS_DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DatabaseDriver)
	}
	if c.HandlerTimeout <= 0 {
		return fmt.Errorf("USERS_HANDLER_TIMEOUT must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid TCP port (1..65535), got %d", c.Port)
	}
	return nil
}
