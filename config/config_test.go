package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// configEnvVars lists every variable the tests may set
var configEnvVars = []string{
	"CATALOGRANK_SERVER_PORT",
	"CATALOGRANK_SERVER_ENVIRONMENT",
	"CATALOGRANK_SERVER_ALLOWED_ORIGINS",
	"CATALOGRANK_CATALOG_PATH",
	"CATALOGRANK_CACHE_TYPE",
	"CATALOGRANK_CACHE_REDIS_URL",
	"CATALOGRANK_CACHE_TTL",
	"CATALOGRANK_SIMILARITY_ENABLED",
	"CATALOGRANK_SIMILARITY_BASE_URL",
	"CATALOGRANK_SIMILARITY_API_KEY",
	"CATALOGRANK_SIMILARITY_REQUESTS_PER_SECOND",
	"CATALOGRANK_RATELIMIT_PER_IP",
	"CATALOGRANK_LOGGING_LEVEL",
	"CATALOGRANK_LOGGING_FORMAT",
	"CATALOGRANK_RECOMMEND_DEFAULT_TOP_K",
	"CATALOGRANK_ANALYTICS_DEFAULT_BINS",
}

// isolateEnv runs the test in an empty directory with all config variables unset
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, name := range configEnvVars {
		if old, ok := os.LookupEnv(name); ok {
			os.Unsetenv(name)
			t.Cleanup(func() { os.Setenv(name, old) })
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"*"}) {
			t.Errorf("Server.AllowedOrigins = %v, want [*]", cfg.Server.AllowedOrigins)
		}
		if cfg.Server.ReadTimeout != 15*time.Second {
			t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
		}
		if len(cfg.Catalog.SearchPaths) != 4 {
			t.Errorf("Catalog.SearchPaths = %v, want 4 entries", cfg.Catalog.SearchPaths)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 10*time.Minute {
			t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
		}
		if cfg.Cache.MaxEntries != 10000 {
			t.Errorf("Cache.MaxEntries = %d, want 10000", cfg.Cache.MaxEntries)
		}
		if cfg.Similarity.Enabled {
			t.Error("Similarity.Enabled = true, want false")
		}
		if cfg.Similarity.Index != "furniture-recommendations" {
			t.Errorf("Similarity.Index = %s, want furniture-recommendations", cfg.Similarity.Index)
		}
		if cfg.Similarity.Namespace != "" {
			t.Errorf("Similarity.Namespace = %q, want the default namespace", cfg.Similarity.Namespace)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
			t.Errorf("Logging = %+v, want info/console", cfg.Logging)
		}
		if cfg.Recommend.DefaultTopK != 5 {
			t.Errorf("Recommend.DefaultTopK = %d, want 5", cfg.Recommend.DefaultTopK)
		}
		if cfg.Analytics.DefaultBins != 20 || cfg.Analytics.DefaultLimit != 10 || cfg.Analytics.DefaultCategoryLimit != 15 {
			t.Errorf("Analytics = %+v, want 20/10/15", cfg.Analytics)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("CATALOGRANK_SERVER_PORT", "9090")
		t.Setenv("CATALOGRANK_SERVER_ENVIRONMENT", "production")
		t.Setenv("CATALOGRANK_CATALOG_PATH", "/data/catalog.csv")
		t.Setenv("CATALOGRANK_CACHE_TYPE", "redis")
		t.Setenv("CATALOGRANK_CACHE_REDIS_URL", "redis://localhost:6379")
		t.Setenv("CATALOGRANK_CACHE_TTL", "1h")
		t.Setenv("CATALOGRANK_SIMILARITY_ENABLED", "true")
		t.Setenv("CATALOGRANK_SIMILARITY_BASE_URL", "https://index.example.com")
		t.Setenv("CATALOGRANK_SIMILARITY_API_KEY", "secret")
		t.Setenv("CATALOGRANK_SIMILARITY_REQUESTS_PER_SECOND", "2.5")
		t.Setenv("CATALOGRANK_RATELIMIT_PER_IP", "0")
		t.Setenv("CATALOGRANK_LOGGING_FORMAT", "json")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Catalog.Path != "/data/catalog.csv" {
			t.Errorf("Catalog.Path = %s, want /data/catalog.csv", cfg.Catalog.Path)
		}
		if cfg.Cache.Type != "redis" || cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache = %+v, want redis at redis://localhost:6379", cfg.Cache)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if !cfg.Similarity.Enabled || cfg.Similarity.APIKey != "secret" {
			t.Errorf("Similarity = %+v, want enabled with key", cfg.Similarity)
		}
		if cfg.Similarity.RequestsPerSecond != 2.5 {
			t.Errorf("Similarity.RequestsPerSecond = %v, want 2.5", cfg.Similarity.RequestsPerSecond)
		}
		if cfg.RateLimit.PerIP != 0 {
			t.Errorf("RateLimit.PerIP = %d, want 0", cfg.RateLimit.PerIP)
		}
		if cfg.Logging.Format != "json" {
			t.Errorf("Logging.Format = %s, want json", cfg.Logging.Format)
		}
	})

	t.Run("reads config.yaml from the working directory", func(t *testing.T) {
		isolateEnv(t)
		yaml := "server:\n  port: \"7070\"\nanalytics:\n  default_bins: 8\n"
		if err := os.WriteFile("config.yaml", []byte(yaml), 0o644); err != nil {
			t.Fatalf("write config.yaml: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if cfg.Analytics.DefaultBins != 8 {
			t.Errorf("Analytics.DefaultBins = %d, want 8", cfg.Analytics.DefaultBins)
		}
	})

	t.Run("environment from .env file is applied", func(t *testing.T) {
		isolateEnv(t)
		if err := os.WriteFile(".env", []byte("CATALOGRANK_SERVER_PORT=6060\n"), 0o644); err != nil {
			t.Fatalf("write .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("CATALOGRANK_SERVER_PORT") })

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "6060" {
			t.Errorf("Server.Port = %s, want 6060", cfg.Server.Port)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("CATALOGRANK_CACHE_TYPE", "invalid")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when similarity enabled without key", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("CATALOGRANK_SIMILARITY_ENABLED", "true")
		t.Setenv("CATALOGRANK_SIMILARITY_BASE_URL", "https://index.example.com")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing similarity API key")
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration: similarity API key is required") {
			t.Errorf("Load() error = %v, want similarity API key error", err)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	write := func(t *testing.T, content string) {
		t.Helper()
		if err := os.WriteFile(".env", []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
	}

	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		t.Chdir(t.TempDir())
		write(t, `
# Comment line
CATALOG_TEST_1=value1
   # indented comment

CATALOG_TEST_2="quoted value"
# CATALOG_TEST_COMMENTED=should_not_load
`)
		for _, k := range []string{"CATALOG_TEST_1", "CATALOG_TEST_2", "CATALOG_TEST_COMMENTED"} {
			os.Unsetenv(k)
			defer os.Unsetenv(k)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if got := os.Getenv("CATALOG_TEST_1"); got != "value1" {
			t.Errorf("CATALOG_TEST_1 = %s, want value1", got)
		}
		if got := os.Getenv("CATALOG_TEST_2"); got != "quoted value" {
			t.Errorf("CATALOG_TEST_2 = %s, want quoted value", got)
		}
		if got := os.Getenv("CATALOG_TEST_COMMENTED"); got != "" {
			t.Errorf("CATALOG_TEST_COMMENTED = %s, want unset", got)
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("CATALOG_TEST_OVERRIDE", "existing-value")
		write(t, "CATALOG_TEST_OVERRIDE=new-value")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if got := os.Getenv("CATALOG_TEST_OVERRIDE"); got != "existing-value" {
			t.Errorf("CATALOG_TEST_OVERRIDE = %s, want existing-value (should not override)", got)
		}
	})

	t.Run("reports malformed file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		write(t, "CATALOG_TEST_BAD='unterminated\n")

		if err := loadEnvFile(); err == nil {
			t.Error("loadEnvFile() error = nil, want parse error")
		}
	})
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080"},
		Cache:     CacheConfig{Type: "memory"},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Recommend: RecommendConfig{DefaultTopK: 5},
		Analytics: AnalyticsConfig{DefaultBins: 20, DefaultLimit: 10, DefaultCategoryLimit: 15},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "validates successfully with defaults", mutate: func(c *Config) {}},
		{name: "fails when port is empty", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{name: "fails for invalid cache type", mutate: func(c *Config) { c.Cache.Type = "invalid-type" }, wantErr: true},
		{
			name:   "validates redis cache type with URL",
			mutate: func(c *Config) { c.Cache = CacheConfig{Type: "redis", RedisURL: "redis://localhost:6379"} },
		},
		{name: "fails for redis cache without URL", mutate: func(c *Config) { c.Cache.Type = "redis" }, wantErr: true},
		{
			name:    "fails for similarity without base URL",
			mutate:  func(c *Config) { c.Similarity = SimilarityConfig{Enabled: true, APIKey: "k"} },
			wantErr: true,
		},
		{
			name:   "validates similarity with URL and key",
			mutate: func(c *Config) { c.Similarity = SimilarityConfig{Enabled: true, BaseURL: "https://x", APIKey: "k"} },
		},
		{
			name:   "ignores similarity settings when disabled",
			mutate: func(c *Config) { c.Similarity = SimilarityConfig{BaseURL: ""} },
		},
		{name: "fails for unknown log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
		{name: "fails for unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "fails for negative rate limit", mutate: func(c *Config) { c.RateLimit.PerIP = -1 }, wantErr: true},
		{name: "fails for zero default top k", mutate: func(c *Config) { c.Recommend.DefaultTopK = 0 }, wantErr: true},
		{name: "fails for zero default bins", mutate: func(c *Config) { c.Analytics.DefaultBins = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
