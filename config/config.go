package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"room-booking-backend/internal/catalog"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Events     EventsConfig     `yaml:"events"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Rooms      []catalog.Room   `yaml:"rooms"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig enables the shared booking lock used when several instances
// serve the same database.
type RedisConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Address        string        `yaml:"address"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	PoolSize       int           `yaml:"pool_size"`
	LockTTLSeconds int           `yaml:"lock_ttl_seconds"`
	LockTTL        time.Duration `yaml:"-"`
}

// EventsConfig holds the message broker settings for booking events.
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// env lists the settings that deployments override through BOOKING_* variables.
type env struct {
	Port            int    `envconfig:"PORT"`
	DatabaseDriver  string `envconfig:"DATABASE_DRIVER"`
	DatabaseDSN     string `envconfig:"DATABASE_DSN"`
	RedisAddr       string `envconfig:"REDIS_ADDR"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	AMQPURL         string `envconfig:"AMQP_URL"`
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
}

// Load reads the configuration from the given path, then applies BOOKING_*
// environment overrides and defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var e env
	if err := envconfig.Process("BOOKING", &e); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if e.Port > 0 {
		cfg.Server.Port = e.Port
	}
	if e.DatabaseDriver != "" {
		cfg.Database.Driver = e.DatabaseDriver
	}
	if e.DatabaseDSN != "" {
		cfg.Database.DSN = e.DatabaseDSN
	}
	if e.RedisAddr != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.Address = e.RedisAddr
	}
	if e.RedisPassword != "" {
		cfg.Redis.Password = e.RedisPassword
	}
	if e.AMQPURL != "" {
		cfg.Events.Enabled = true
		cfg.Events.URL = e.AMQPURL
	}
	if e.VAPIDPublicKey != "" {
		cfg.Push.PublicKey = e.VAPIDPublicKey
	}
	if e.VAPIDPrivateKey != "" {
		cfg.Push.PrivateKey = e.VAPIDPrivateKey
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "file:bookings.db?cache=shared&_busy_timeout=5000"
	}

	if cfg.Redis.LockTTLSeconds <= 0 {
		cfg.Redis.LockTTLSeconds = 10
	}
	cfg.Redis.LockTTL = time.Duration(cfg.Redis.LockTTLSeconds) * time.Second

	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "bookings"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}
}
