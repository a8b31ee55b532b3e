package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
)

type Config struct {
	JWTSecret         string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	AccessTTL         time.Duration `yaml:"access_ttl" env:"AUTH_ACCESS_TTL" env-default:"45s"`
	RefreshTTL        time.Duration `yaml:"refresh_ttl" env:"AUTH_REFRESH_TTL" env-default:"168h"`
	RememberMeTTL     time.Duration `yaml:"remember_me_ttl" env:"AUTH_REMEMBER_ME_TTL" env-default:"720h"`
	RotatedRefreshTTL time.Duration `yaml:"rotated_refresh_ttl" env:"AUTH_ROTATED_REFRESH_TTL" env-default:"10m"`

	DatabaseFile string `yaml:"database_file" env:"AUTH_DATABASE_FILE" env-default:"auth.db"`
	PepperFile   string `yaml:"pepper_file" env:"AUTH_PEPPER_FILE" env-default:"pepper"`

	// RedisURL selects the shared blacklist. Empty keeps it in process.
	RedisURL string `yaml:"redis_url" env:"AUTH_REDIS_URL"`
	// AMQPURL enables event publishing. Empty logs and discards events.
	AMQPURL string `yaml:"amqp_url" env:"AUTH_AMQP_URL"`

	// SecureCookies is "true", "false" or empty. Empty means Env == "prod".
	SecureCookies string `yaml:"secure_cookies" env:"AUTH_SECURE_COOKIES"`

	Env                  string        `yaml:"env" env:"ENV" env-default:"dev"`
	LogLevel             string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat            string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	Port                 int           `yaml:"port" env:"PORT" env-default:"8080"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s"`
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval" env:"HOUSEKEEPING_INTERVAL" env-default:"1h"`
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
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.RememberMeTTL <= 0 || c.RotatedRefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid TCP port (1..65535), got %d", c.Port)
	}
	if c.SecureCookies != "" {
		if _, err := strconv.ParseBool(c.SecureCookies); err != nil {
			return fmt.Errorf("AUTH_SECURE_COOKIES: %w", err)
		}
	}
	return nil
}

// CookiesSecure reports whether the refresh cookie carries the Secure flag.
func (c Config) CookiesSecure() bool {
	if v, err := strconv.ParseBool(c.SecureCookies); err == nil {
		return v
	}
	return c.Env == "prod"
}
