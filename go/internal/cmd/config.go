package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/bbdraft/go/internal/draft/clock"
	"github.com/mcdev12/bbdraft/go/internal/draft/lifecycle"
	"github.com/mcdev12/bbdraft/go/internal/draft/outbox"
	"github.com/mcdev12/bbdraft/go/internal/draft/room"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	storeDriverMemory   = "memory"
	storeDriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Store struct {
		Driver      string `yaml:"driver"`
		SeedPath    string `yaml:"seed_path"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"store"`
	Clock  clock.Config  `yaml:"clock"`
	Room   room.Config   `yaml:"room"`
	Outbox outbox.Config `yaml:"outbox"`
	NATS   struct {
		URL           string                `yaml:"url"`
		MaxReconnects int                   `yaml:"max_reconnects"`
		ReconnectWait time.Duration         `yaml:"reconnect_wait"`
		Stream        outbox.StreamConfig   `yaml:"stream"`
		Consumer      outbox.ConsumerConfig `yaml:"consumer"`
	} `yaml:"nats"`
	Redis struct {
		Addr        string        `yaml:"addr"`
		Password    string        `yaml:"password"`
		DB          int           `yaml:"db"`
		PresenceTTL time.Duration `yaml:"presence_ttl"`
	} `yaml:"redis"`
	Auth struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
	} `yaml:"auth"`
	DraftDefaults models.DraftConfiguration `yaml:"draft_defaults"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.ShutdownTimeout = 15 * time.Second
	cfg.Store.Driver = storeDriverMemory
	cfg.Clock = clock.DefaultConfig()
	cfg.Room = room.DefaultConfig()
	cfg.Outbox = outbox.DefaultConfig()
	cfg.NATS.MaxReconnects = -1
	cfg.NATS.ReconnectWait = 2 * time.Second
	cfg.NATS.Stream = outbox.DefaultStreamConfig()
	cfg.NATS.Consumer = outbox.DefaultConsumerConfig()
	cfg.Redis.PresenceTTL = 2 * time.Minute
	cfg.Auth.Issuer = "bbdraft"
	cfg.DraftDefaults = models.DefaultDraftConfiguration()
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadConfig layers the YAML file (when present) and then the environment
// over the defaults.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", config.Server.ShutdownTimeout)
	config.Store.Driver = getEnv("STORE_DRIVER", config.Store.Driver)
	config.Store.SeedPath = getEnv("SEED_PATH", config.Store.SeedPath)
	config.Store.AutoMigrate = getEnv("DB_AUTO_MIGRATE", strconv.FormatBool(config.Store.AutoMigrate)) == "true"
	config.Clock.TickInterval = getEnvAsDuration("CLOCK_TICK_INTERVAL", config.Clock.TickInterval)
	config.Clock.SweepInterval = getEnvAsDuration("CLOCK_SWEEP_INTERVAL", config.Clock.SweepInterval)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.NATS.Consumer.ConsumerName = getEnv("NATS_CONSUMER_NAME", config.NATS.Consumer.ConsumerName)
	config.Redis.Addr = getEnv("REDIS_ADDR", config.Redis.Addr)
	config.Redis.Password = getEnv("REDIS_PASSWORD", config.Redis.Password)
	config.Redis.DB = getEnvAsInt("REDIS_DB", config.Redis.DB)
	config.Auth.Secret = getEnv("AUTH_SECRET", config.Auth.Secret)
	config.Auth.Issuer = getEnv("AUTH_ISSUER", config.Auth.Issuer)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case storeDriverMemory:
	case storeDriverPostgres:
		if c.NATS.URL == "" {
			return fmt.Errorf("the postgres store relays its outbox over NATS: set NATS_URL")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("AUTH_SECRET is required")
	}
	if err := lifecycle.ValidateConfiguration(c.DraftDefaults); err != nil {
		return fmt.Errorf("invalid draft_defaults: %w", err)
	}
	return nil
}
