package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config captures one invocation's settings for the reconciliation tools.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (IDSWEEP_* or IDSEED_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// The struct is built once per invocation and never mutated afterwards;
// commands receive it by pointer and treat it as read-only.
type Config struct {
	// Server locates the directory API and carries the bearer token
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Provider is the identity provider prefix whose records are managed.
	// Commands that talk to the directory require it; local-only commands
	// (config show, schema, init) do not.
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Exclusions is the path to the exclusion list file. Empty means no
	// exclusion list is configured and nothing is protected.
	Exclusions string `mapstructure:"exclusions" yaml:"exclusions,omitempty"`

	// Ledger is the path of the CSV audit ledger written by each run
	Ledger string `mapstructure:"ledger" validate:"required" yaml:"ledger"`

	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Retry bounds the per-call retry loop for directory operations
	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`

	// DryRun simulates mutations: planned work is logged, nothing is changed
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`

	// AutoConfirm skips interactive confirmation prompts
	AutoConfirm bool `mapstructure:"auto_confirm" yaml:"auto_confirm"`

	// Debug forces Logging.Level to DEBUG regardless of other sources
	Debug bool `mapstructure:"debug" yaml:"-"`
}

// ServerConfig locates the directory API server.
type ServerConfig struct {
	// URL is the base URL of the directory API server.
	// Required by every command that performs remote calls.
	URL string `mapstructure:"url" validate:"omitempty,url" yaml:"url"`

	// Token is the bearer token presented on every request
	Token string `mapstructure:"token" yaml:"token,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// File is the log file every record is appended to.
	// Empty disables the file sink.
	File string `mapstructure:"file" yaml:"file,omitempty"`

	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log file encoding
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Quiet drops console log output; the file sink is unaffected
	Quiet bool `mapstructure:"quiet" yaml:"quiet"`
}

// RetryConfig bounds the retry loop wrapped around every directory call.
type RetryConfig struct {
	// MaxAttempts is the total number of tries per call, first attempt included
	MaxAttempts int `mapstructure:"max_attempts" validate:"min=1,max=10" yaml:"max_attempts"`

	// DelaySeconds is the fixed pause between consecutive attempts
	DelaySeconds int `mapstructure:"delay_seconds" validate:"min=1,max=60" yaml:"delay_seconds"`

	// CallTimeout is the deadline applied to each individual attempt
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"required,gt=0" yaml:"call_timeout"`
}

// Delay returns the configured pause between attempts as a duration.
func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelaySeconds) * time.Second
}

// MarshalYAML renders CallTimeout in the "30s" form config files accept,
// instead of raw nanoseconds.
func (r RetryConfig) MarshalYAML() (any, error) {
	return struct {
		MaxAttempts  int    `yaml:"max_attempts"`
		DelaySeconds int    `yaml:"delay_seconds"`
		CallTimeout  string `yaml:"call_timeout"`
	}{r.MaxAttempts, r.DelaySeconds, r.CallTimeout.String()}, nil
}

// NewViper builds a viper instance for the given tool with environment
// support, per-tool defaults, and config file lookup wired in. Callers may
// bind CLI flags onto the returned instance before Load.
func NewViper(tool Tool, configPath string) *viper.Viper {
	v := viper.New()

	// Environment variables use the tool prefix and underscores
	// Example: IDSWEEP_LOGGING_LEVEL=DEBUG, IDSEED_SERVER_URL=...
	v.SetEnvPrefix(tool.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register defaults for every key. Besides supplying fallback values,
	// this makes AutomaticEnv visible to Unmarshal for keys absent from
	// the config file.
	setDefaults(v, tool)

	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/idsweep/<tool>.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName(tool.Name)
		v.SetConfigType("yaml") // Primary format
	}

	return v
}

// Load reads the config file if present, unmarshals all sources, applies
// defaults, and validates the result.
func Load(v *viper.Viper, tool Tool) (*Config, error) {
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg, tool)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the specified file path in YAML format.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600 because the config may carry the bearer token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// readConfigFile reads the configuration file if it exists. A missing file
// is acceptable; flags, environment, and defaults still apply.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// Explicit config paths surface as os.PathError when absent
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// durationDecodeHook converts strings and numbers to time.Duration so config
// files can use human-readable durations like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory shared by both tools.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "idsweep")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "idsweep")
}

// GetDefaultConfigPath returns the default configuration file path for a tool.
func GetDefaultConfigPath(tool Tool) string {
	return filepath.Join(getConfigDir(), tool.Name+".yaml")
}

// GetConfigDir returns the configuration directory shared by both tools.
func GetConfigDir() string {
	return getConfigDir()
}
