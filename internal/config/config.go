package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envsettings/internal/render"
	"github.com/eugenenazirov/envsettings/pkg/settings"
)

const (
	defaultFormat   = render.FormatJSON
	defaultLogLevel = "info"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	SchemaFile string
	EnvFiles   []string
	// EnvPrefix and CaseInsensitive are nil unless set by some source, in
	// which case they replace the policy declared in the schema file.
	EnvPrefix       *string
	CaseInsensitive *bool
	Format          string
	LogLevel        string
	Overrides       map[string]string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Schema          string            `yaml:"schema"`
	EnvFiles        []string          `yaml:"env_files"`
	Prefix          *string           `yaml:"prefix"`
	CaseInsensitive *bool             `yaml:"case_insensitive"`
	Format          string            `yaml:"format"`
	LogLevel        string            `yaml:"log_level"`
	Set             map[string]string `yaml:"set"`
}

// envConfig is resolved from ENVSETTINGS_* variables through the settings
// package itself. Pointer fields stay nil when unset.
type envConfig struct {
	Schema          *string  `env:"ENVSETTINGS_SCHEMA"`
	EnvFiles        []string `env:"ENVSETTINGS_ENV_FILES"`
	Prefix          *string  `env:"ENVSETTINGS_PREFIX"`
	CaseInsensitive *bool    `env:"ENVSETTINGS_CASE_INSENSITIVE"`
	Format          *string  `env:"ENVSETTINGS_FORMAT"`
	LogLevel        *string  `env:"ENVSETTINGS_LOG_LEVEL"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	SchemaFile      *string
	EnvFiles        []string
	EnvPrefix       *string
	CaseInsensitive *bool
	Format          *string
	LogLevel        *string
	Set             map[string]string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment variables sit just above the defaults
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Format:    defaultFormat,
		LogLevel:  defaultLogLevel,
		Overrides: map[string]string{},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Schema != "" {
		cfg.SchemaFile = yamlCfg.Schema
	}

	if len(yamlCfg.EnvFiles) > 0 {
		cfg.EnvFiles = yamlCfg.EnvFiles
	}

	if yamlCfg.Prefix != nil {
		cfg.EnvPrefix = yamlCfg.Prefix
	}

	if yamlCfg.CaseInsensitive != nil {
		cfg.CaseInsensitive = yamlCfg.CaseInsensitive
	}

	if yamlCfg.Format != "" {
		cfg.Format = yamlCfg.Format
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	maps.Copy(cfg.Overrides, yamlCfg.Set)
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	envCfg, err := settings.Construct[envConfig](nil)
	if err != nil {
		return fmt.Errorf("load environment config: %w", err)
	}

	if envCfg.Schema != nil && strings.TrimSpace(*envCfg.Schema) != "" {
		cfg.SchemaFile = strings.TrimSpace(*envCfg.Schema)
	}

	if len(envCfg.EnvFiles) > 0 {
		cfg.EnvFiles = envCfg.EnvFiles
	}

	if envCfg.Prefix != nil {
		cfg.EnvPrefix = envCfg.Prefix
	}

	if envCfg.CaseInsensitive != nil {
		cfg.CaseInsensitive = envCfg.CaseInsensitive
	}

	if envCfg.Format != nil && strings.TrimSpace(*envCfg.Format) != "" {
		cfg.Format = strings.TrimSpace(*envCfg.Format)
	}

	if envCfg.LogLevel != nil && strings.TrimSpace(*envCfg.LogLevel) != "" {
		cfg.LogLevel = strings.TrimSpace(*envCfg.LogLevel)
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.SchemaFile != nil && *overrides.SchemaFile != "" {
		cfg.SchemaFile = *overrides.SchemaFile
	}

	if len(overrides.EnvFiles) > 0 {
		cfg.EnvFiles = overrides.EnvFiles
	}

	if overrides.EnvPrefix != nil {
		cfg.EnvPrefix = overrides.EnvPrefix
	}

	if overrides.CaseInsensitive != nil {
		cfg.CaseInsensitive = overrides.CaseInsensitive
	}

	if overrides.Format != nil && *overrides.Format != "" {
		cfg.Format = *overrides.Format
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	maps.Copy(cfg.Overrides, overrides.Set)
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.SchemaFile == "" {
		return fmt.Errorf("schema file is required")
	}
	if !slices.Contains(render.Formats(), strings.ToLower(cfg.Format)) {
		return fmt.Errorf("format must be one of %s, got %q", strings.Join(render.Formats(), ", "), cfg.Format)
	}
	for key := range cfg.Overrides {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("override keys cannot be empty")
		}
	}
	return nil
}
