// Package config handles configuration loading for kofin.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers" json:"providers"`
	State     StateConfig     `mapstructure:"state"     yaml:"state"     json:"state"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"   json:"logging"`
}

// ProvidersConfig holds upstream API credentials.
type ProvidersConfig struct {
	Dart  DartConfig  `mapstructure:"dart"  yaml:"dart"  json:"dart"`
	Kis   KisConfig   `mapstructure:"kis"   yaml:"kis"   json:"kis"`
	Ecos  EcosConfig  `mapstructure:"ecos"  yaml:"ecos"  json:"ecos"`
	Kosis KosisConfig `mapstructure:"kosis" yaml:"kosis" json:"kosis"`
}

// DartConfig holds the OpenDART API key.
type DartConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"-"` // excluded from JSON
}

// KisConfig holds the KIS app credentials and environment selection.
type KisConfig struct {
	AppKey    string `mapstructure:"app_key"    yaml:"app_key"    json:"-"`
	AppSecret string `mapstructure:"app_secret" yaml:"app_secret" json:"-"`
	Sandbox   bool   `mapstructure:"sandbox"    yaml:"sandbox"    json:"sandbox"`
}

// EcosConfig holds the Bank of Korea ECOS API key.
type EcosConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"-"`
}

// KosisConfig holds the Statistics Korea KOSIS API key.
type KosisConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"-"`
}

// StateConfig locates the persisted caches, counters, and tokens.
type StateConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"` // default ~/.kofin
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
	File   string `mapstructure:"file"   yaml:"file"   json:"file"`   // empty = stderr only
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.kofin/config.yaml (home directory)
//  3. /etc/kofin/config.yaml (system)
//
// Environment variables override config file values.
// Format: KOFIN_<SECTION>_<KEY>, e.g., KOFIN_PROVIDERS_DART_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".kofin"))
	v.AddConfigPath("/etc/kofin")

	v.SetEnvPrefix("KOFIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("KOFIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("state.dir", filepath.Join(homeDir(), ".kofin"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("KOFIN_PROVIDERS_DART_API_KEY"); key != "" {
		cfg.Providers.Dart.APIKey = key
	}
	if key := os.Getenv("KOFIN_PROVIDERS_KIS_APP_KEY"); key != "" {
		cfg.Providers.Kis.AppKey = key
	}
	if key := os.Getenv("KOFIN_PROVIDERS_KIS_APP_SECRET"); key != "" {
		cfg.Providers.Kis.AppSecret = key
	}
	if key := os.Getenv("KOFIN_PROVIDERS_ECOS_API_KEY"); key != "" {
		cfg.Providers.Ecos.APIKey = key
	}
	if key := os.Getenv("KOFIN_PROVIDERS_KOSIS_API_KEY"); key != "" {
		cfg.Providers.Kosis.APIKey = key
	}
}

// SaveToFile writes the current configuration to a YAML file.
// If path is empty, it writes to ./config/config.yaml.
func SaveToFile(cfg *Config, path string) error {
	if path == "" {
		path = filepath.Join(".", "config", "config.yaml")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
