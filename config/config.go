package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Catalog    CatalogConfig
	Cache      CacheConfig
	Similarity SimilarityConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
	Recommend  RecommendConfig
	Analytics  AnalyticsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// CatalogConfig locates the catalog file
type CatalogConfig struct {
	Path        string   `mapstructure:"path"` // explicit file; overrides search_paths
	SearchPaths []string `mapstructure:"search_paths"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL   string        `mapstructure:"redis_url"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"` // memory cache only
}

// SimilarityConfig holds the optional vector index configuration
type SimilarityConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Index             string        `mapstructure:"index"`     // informational; base_url selects the index host
	Namespace         string        `mapstructure:"namespace"` // empty queries the default namespace
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// RecommendConfig holds recommendation defaults
type RecommendConfig struct {
	DefaultTopK     int     `mapstructure:"default_top_k"`
	ScoreSaturation float64 `mapstructure:"score_saturation"`
}

// AnalyticsConfig holds analytics defaults
type AnalyticsConfig struct {
	DefaultBins          int `mapstructure:"default_bins"`
	DefaultLimit         int `mapstructure:"default_limit"`
	DefaultCategoryLimit int `mapstructure:"default_category_limit"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/catalogrank/")

	// Environment variable settings: CATALOGRANK_SERVER_PORT -> server.port
	v.SetEnvPrefix("CATALOGRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads KEY=value pairs from ./.env into the process environment.
// Variables that are already set win; a missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values.
// Every key needs a default so that environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	// Catalog defaults
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.search_paths", []string{
		"data/furniture_dataset_final.csv",
		"../data/furniture_dataset_final.csv",
		"data/furniture_dataset_cleaned.csv",
		"../data/furniture_dataset_cleaned.csv",
	})

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_entries", 10000)

	// Similarity defaults
	v.SetDefault("similarity.enabled", false)
	v.SetDefault("similarity.base_url", "")
	v.SetDefault("similarity.api_key", "")
	v.SetDefault("similarity.index", "furniture-recommendations")
	v.SetDefault("similarity.namespace", "")
	v.SetDefault("similarity.timeout", "5s")
	v.SetDefault("similarity.requests_per_second", 5)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Pipeline defaults
	v.SetDefault("recommend.default_top_k", 5)
	v.SetDefault("recommend.score_saturation", 10.0)
	v.SetDefault("analytics.default_bins", 20)
	v.SetDefault("analytics.default_limit", 10)
	v.SetDefault("analytics.default_category_limit", 15)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set CATALOGRANK_SERVER_PORT)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Similarity.Enabled {
		if config.Similarity.BaseURL == "" {
			return fmt.Errorf("similarity base URL is required when similarity is enabled (set CATALOGRANK_SIMILARITY_BASE_URL)")
		}
		if config.Similarity.APIKey == "" {
			return fmt.Errorf("similarity API key is required when similarity is enabled (set CATALOGRANK_SIMILARITY_API_KEY)")
		}
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level must be one of debug, info, warn, error, got: %s", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got: %s", config.Logging.Format)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	if config.Recommend.DefaultTopK <= 0 || config.Analytics.DefaultBins <= 0 ||
		config.Analytics.DefaultLimit <= 0 || config.Analytics.DefaultCategoryLimit <= 0 {
		return fmt.Errorf("recommend and analytics defaults must be positive")
	}

	return nil
}
