package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Analysis  AnalysisConfig
	Backend   BackendConfig
	Store     StoreConfig
	Tracker   TrackerConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AnalysisConfig holds analysis pipeline configuration
type AnalysisConfig struct {
	Provider        string        `mapstructure:"provider"` // "stub" or "backend"
	StageTimeout    time.Duration `mapstructure:"stage_timeout"`
	MaxAlternatives int           `mapstructure:"max_alternatives"`
}

// BackendConfig holds the hosted analysis backend configuration, used when
// the analysis provider is "backend"
type BackendConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AuthToken string `mapstructure:"auth_token"`
}

// StoreConfig holds key-value store configuration
type StoreConfig struct {
	Type          string `mapstructure:"type"` // "memory", "file" or "redis"
	FilePath      string `mapstructure:"file_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// TrackerConfig holds view tracker configuration
type TrackerConfig struct {
	Retention        time.Duration `mapstructure:"retention"`
	WarningThreshold int           `mapstructure:"warning_threshold"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/swytch/")

	// Environment variable settings
	v.SetEnvPrefix("SWYTCH")
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Analysis defaults
	v.SetDefault("analysis.provider", "stub")
	v.SetDefault("analysis.stage_timeout", "30s")
	v.SetDefault("analysis.max_alternatives", 8)

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.file_path", "swytch-state.json")
	v.SetDefault("store.redis_prefix", "swytch")

	// Tracker defaults
	v.SetDefault("tracker.retention", "168h") // 7 days
	v.SetDefault("tracker.warning_threshold", 3)

	// Rate limit defaults
	v.SetDefault("ratelimit.requests_per_second", 25)
	v.SetDefault("ratelimit.burst", 50)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Analysis.Provider != "stub" && config.Analysis.Provider != "backend" {
		return fmt.Errorf("analysis provider must be 'stub' or 'backend', got: %s", config.Analysis.Provider)
	}

	if config.Analysis.Provider == "backend" && config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required when analysis provider is 'backend' (set SWYTCH_BACKEND_BASE_URL)")
	}

	switch config.Store.Type {
	case "memory":
	case "file":
		if config.Store.FilePath == "" {
			return fmt.Errorf("store file path is required when store type is 'file'")
		}
	case "redis":
		if config.Store.RedisAddr == "" {
			return fmt.Errorf("Redis address is required when store type is 'redis'")
		}
	default:
		return fmt.Errorf("store type must be 'memory', 'file' or 'redis', got: %s", config.Store.Type)
	}

	if config.Tracker.Retention <= 0 {
		return fmt.Errorf("tracker retention must be positive, got: %s", config.Tracker.Retention)
	}
	if config.Tracker.WarningThreshold < 1 {
		return fmt.Errorf("tracker warning threshold must be at least 1, got: %d", config.Tracker.WarningThreshold)
	}

	return nil
}
