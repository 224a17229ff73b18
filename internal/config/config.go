// Package config loads the engine configuration from YAML with
// environment overrides. Variant signature tables live in their own
// versioned file (see variants.go) so new campaign variants do not
// require engine changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the attribution engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Bison    BisonConfig    `yaml:"bison"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Engine   EngineConfig   `yaml:"engine"`
}

// ServerConfig holds the report API server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// BisonConfig holds the thread-detail service settings.
type BisonConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (c BisonConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the report cache settings.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// TTL returns the cache TTL as a duration.
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// StorageConfig holds the report export settings.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // "file", "s3" or "none"
	LocalDir   string `yaml:"local_dir"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSProfile string `yaml:"aws_profile"`
}

// EngineConfig holds the attribution knobs that have changed over the
// life of the outreach program.
type EngineConfig struct {
	// MethodCutoffDate separates old-method from new-method email
	// sends; stats rows contacted on or after it belong to the new
	// method. Format: 2006-01-02.
	MethodCutoffDate string `yaml:"method_cutoff_date"`
	// NewMethodSenderDomain is the fallback classifier for stats rows
	// without a contacted date.
	NewMethodSenderDomain string `yaml:"new_method_sender_domain"`
	// MainSequenceID is the sending platform's ID for the current
	// main campaign sequence.
	MainSequenceID string `yaml:"main_sequence_id"`
	// VariantRulesPath optionally overrides the compiled-in variant
	// signature tables.
	VariantRulesPath string `yaml:"variant_rules_path"`
}

// CutoffDate parses MethodCutoffDate; the zero time means every dated
// row classifies as old method.
func (c EngineConfig) CutoffDate() time.Time {
	t, err := time.ParseInLocation("2006-01-02", c.MethodCutoffDate, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Load reads the YAML config at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads the YAML config (falling back to pure defaults when
// path is empty or missing) and applies environment overrides. A .env
// file in the working directory is honored when present.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg *Config
	if path != "" {
		loaded, err := Load(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		cfg = loaded
	}
	if cfg == nil {
		cfg = &Config{}
		cfg.applyDefaults()
	}

	if v := os.Getenv("BISON_BASE_URL"); v != "" {
		cfg.Bison.BaseURL = v
	}
	if v := os.Getenv("BISON_API_KEY"); v != "" {
		cfg.Bison.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
		cfg.Storage.Backend = "s3"
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Bison.BaseURL == "" {
		c.Bison.BaseURL = "https://app.emailbison.com/api"
	}
	if c.Bison.TimeoutSeconds == 0 {
		c.Bison.TimeoutSeconds = 120
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.TTLMinutes == 0 {
		c.Redis.TTLMinutes = 60
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "reports"
	}
	if c.Storage.S3Region == "" {
		c.Storage.S3Region = "us-east-1"
	}
	if c.Engine.MethodCutoffDate == "" {
		c.Engine.MethodCutoffDate = "2024-12-01"
	}
	if c.Engine.NewMethodSenderDomain == "" {
		c.Engine.NewMethodSenderDomain = "unitesync.io"
	}
	if c.Engine.MainSequenceID == "" {
		c.Engine.MainSequenceID = "1047"
	}
}
