package config

import (
	"errors"
	"strings"
	"time"

	"blogicum/internal/policy"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Blog    BlogConfig    `mapstructure:"blog"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	BaseURL string    `mapstructure:"base_url"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
// Driver is either "sqlite3" or "mysql"; MySQL DSNs need parseTime=true
// and multiStatements=true.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// SessionConfig holds session cookie configuration. Lifetime is in hours.
type SessionConfig struct {
	Lifetime int `mapstructure:"lifetime"`
}

// CacheConfig holds the rendered content cache configuration.
type CacheConfig struct {
	FilePath string        `mapstructure:"file_path"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// BlogConfig holds the listing and display limits shared with the policy layer.
type BlogConfig struct {
	PageSize    int    `mapstructure:"page_size"`
	Restriction int    `mapstructure:"restriction"`
	LoginURL    string `mapstructure:"login_url"`
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "blogicum.db")
	v.SetDefault("session.lifetime", 24)
	v.SetDefault("cache.file_path", "cache.db")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("blog.page_size", policy.DefaultPageSize)
	v.SetDefault("blog.restriction", policy.DefaultRestriction)
	v.SetDefault("blog.login_url", "/auth/login/")

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/blogicum/")
	v.AddConfigPath("$HOME/.blogicum")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	v.SetEnvPrefix("BLOGICUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	if c.Blog.PageSize <= 0 {
		return errors.New("blog.page_size must be positive")
	}
	if c.Blog.Restriction <= 0 {
		return errors.New("blog.restriction must be positive")
	}
	switch c.DB.Driver {
	case "sqlite3", "mysql":
	default:
		return errors.New("db.driver must be sqlite3 or mysql")
	}
	return nil
}
