// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Queue   QueueConfig   `mapstructure:"queue"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the operational HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs fetch politeness and extraction behavior.
type CrawlerConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	Concurrency      int    `mapstructure:"concurrency"`
	DefaultDelayMs   int    `mapstructure:"default_delay_ms"`
	RobotsCacheHours int    `mapstructure:"robots_cache_hours"`
	MaxBodyBytes     int64  `mapstructure:"max_body_bytes"`
	LinkCap          int    `mapstructure:"link_cap"`
	HubLinkCap       int    `mapstructure:"hub_link_cap"`
}

// HTTPConfig configures fetch timeouts and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds       int `mapstructure:"timeout_seconds"`
	WorkerTimeoutSeconds int `mapstructure:"worker_timeout_seconds"`
	MaxRetries           int `mapstructure:"max_retries"`
	BackoffInitialMs     int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs         int `mapstructure:"backoff_max_ms"`
}

// QueueConfig controls the batch orchestrator and discovery bounds.
type QueueConfig struct {
	BatchSize          int `mapstructure:"batch_size"`
	MaxAttempts        int `mapstructure:"max_attempts"`
	PendingCap         int `mapstructure:"pending_cap"`
	RetentionDays      int `mapstructure:"retention_days"`
	RescheduleBaseMins int `mapstructure:"reschedule_base_minutes"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// PubSubConfig holds metadata for the validation-trigger topic.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.user_agent", "littleweb-crawler/1.0 (+https://littleweb.example/bot)")
	v.SetDefault("crawler.concurrency", 3)
	v.SetDefault("crawler.default_delay_ms", 1000)
	v.SetDefault("crawler.robots_cache_hours", 24)
	v.SetDefault("crawler.max_body_bytes", 5<<20)
	v.SetDefault("crawler.link_cap", 10)
	v.SetDefault("crawler.hub_link_cap", 100)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.worker_timeout_seconds", 15)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.backoff_initial_ms", 1000)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("queue.batch_size", 10)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.pending_cap", 5000)
	v.SetDefault("queue.retention_days", 30)
	v.SetDefault("queue.reschedule_base_minutes", 5)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.UserAgent == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawler.max_body_bytes must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Queue.BatchSize <= 0 {
		return fmt.Errorf("queue.batch_size must be > 0")
	}
	if c.Queue.MaxAttempts <= 0 {
		return fmt.Errorf("queue.max_attempts must be > 0")
	}
	if c.Queue.PendingCap <= 0 {
		return fmt.Errorf("queue.pending_cap must be > 0")
	}
	return nil
}

// FetchTimeout converts the configured seconds into a duration.
func (c HTTPConfig) FetchTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WorkerFetchTimeout is the longer timeout used inside batch runs.
func (c HTTPConfig) WorkerFetchTimeout() time.Duration {
	return time.Duration(c.WorkerTimeoutSeconds) * time.Second
}
