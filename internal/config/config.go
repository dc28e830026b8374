package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Scraping ScrapingConfig `yaml:"scraping"`
	AppStore AppStoreConfig `yaml:"app_store"`
	Reddit   RedditConfig   `yaml:"reddit"`
	Feeds    FeedsConfig    `yaml:"feeds"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeMins int    `yaml:"conn_max_life_mins"`
}

// ConnMaxLifetime returns the connection lifetime as a duration
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifeMins) * time.Minute
}

// RedisConfig holds Redis settings for progress tracking and job locks
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// ScrapingConfig holds orchestrator tuning
type ScrapingConfig struct {
	MaxConcurrentSources     int `yaml:"max_concurrent_sources"`
	DeadlineSeconds          int `yaml:"deadline_seconds"`
	EnrichmentTimeoutSeconds int `yaml:"enrichment_timeout_seconds"`
	DetailCompetitors        int `yaml:"detail_competitors"`
}

// Deadline returns the global scraping deadline as a duration
func (c ScrapingConfig) Deadline() time.Duration {
	return time.Duration(c.DeadlineSeconds) * time.Second
}

// EnrichmentTimeout returns the enrichment budget as a duration
func (c ScrapingConfig) EnrichmentTimeout() time.Duration {
	return time.Duration(c.EnrichmentTimeoutSeconds) * time.Second
}

// AppStoreConfig holds the App Store source settings
type AppStoreConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Country    string `yaml:"country"`
	Limit      int    `yaml:"limit"`
	MaxQueries int    `yaml:"max_queries"`
}

// RedditConfig holds the Reddit source settings
type RedditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Limit      int    `yaml:"limit"`
	MaxQueries int    `yaml:"max_queries"`
	TimeWindow string `yaml:"time_window"`
}

// FeedsConfig holds the RSS/Atom source settings
type FeedsConfig struct {
	Enabled         bool     `yaml:"enabled"`
	URLs            []string `yaml:"urls"`
	MaxItemsPerFeed int      `yaml:"max_items_per_feed"`
}

// ArchiveConfig holds the S3 cold-storage settings
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	S3Bucket   string `yaml:"s3_bucket"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c ArchiveConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// LoggingConfig holds log level and redaction settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on; it defaults to on.
func (c LoggingConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifeMins == 0 {
		cfg.Database.ConnMaxLifeMins = 30
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Scraping.MaxConcurrentSources == 0 {
		cfg.Scraping.MaxConcurrentSources = 5
	}
	if cfg.Scraping.DeadlineSeconds == 0 {
		cfg.Scraping.DeadlineSeconds = 300
	}
	if cfg.Scraping.EnrichmentTimeoutSeconds == 0 {
		cfg.Scraping.EnrichmentTimeoutSeconds = 60
	}
	if cfg.Scraping.DetailCompetitors == 0 {
		cfg.Scraping.DetailCompetitors = 3
	}
	if cfg.AppStore.Country == "" {
		cfg.AppStore.Country = "us"
	}
	if cfg.AppStore.Limit == 0 {
		cfg.AppStore.Limit = 10
	}
	if cfg.AppStore.MaxQueries == 0 {
		cfg.AppStore.MaxQueries = 3
	}
	if cfg.Reddit.Limit == 0 {
		cfg.Reddit.Limit = 25
	}
	if cfg.Reddit.MaxQueries == 0 {
		cfg.Reddit.MaxQueries = 3
	}
	if cfg.Reddit.TimeWindow == "" {
		cfg.Reddit.TimeWindow = "year"
	}
	if cfg.Feeds.MaxItemsPerFeed == 0 {
		cfg.Feeds.MaxItemsPerFeed = 15
	}
	if cfg.Archive.AWSRegion == "" {
		cfg.Archive.AWSRegion = "us-west-2"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("ARCHIVE_S3_REGION"); v != "" {
		cfg.Archive.AWSRegion = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
