package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Redis       RedisConfig       `mapstructure:"redis"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	UpdateCheck UpdateCheckConfig `mapstructure:"update_check"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Env         string   `mapstructure:"env"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, mongo
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"` // mongo database name
}

// LLMConfig describes the chat-completion backend used for reports.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai (any compatible API, e.g. x.ai), gemini
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"` // zero leaves the HTTP client without a deadline
}

type CacheConfig struct {
	Driver string        `mapstructure:"driver"` // memory, lru, redis
	Size   int           `mapstructure:"size"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type UpdateCheckConfig struct {
	URL     string `mapstructure:"url"` // releases/latest endpoint; empty disables the check
	Current string `mapstructure:"current"`
}

// ErrMissingDatabaseURI is returned when no catalog connection string is configured.
var ErrMissingDatabaseURI = errors.New("database uri is not configured (set DATABASE_URI or MONGODB_URI)")

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env / .env.local if present
	_ = godotenv.Load(".env.local", ".env")

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.name", "eventagrate")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.x.ai/v1")
	v.SetDefault("llm.model", "grok-beta")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", time.Duration(0))
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.ttl", time.Duration(0))
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "cost-report")
	v.SetDefault("update_check.current", "v0.0.0")

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// secrets have no default, so they must be bound explicitly
	_ = v.BindEnv("database.uri", "DATABASE_URI", "MONGODB_URI")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY", "XAI_API_KEY")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("update_check.url", "UPDATE_CHECK_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without. The LLM key is
// deliberately absent: it is only needed once a report misses every cache.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URI) == "" {
		return ErrMissingDatabaseURI
	}
	switch c.Database.Driver {
	case "sqlite", "mongo":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}
