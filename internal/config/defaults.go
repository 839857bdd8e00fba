package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Tool identifies which binary is loading configuration. It selects the
// environment prefix, the config file name, and the per-tool file defaults.
type Tool struct {
	// Name is the binary name, also used as the config file basename
	Name string

	// EnvPrefix is the environment variable prefix (without trailing _)
	EnvPrefix string

	// LedgerName is the default audit ledger filename
	LedgerName string

	// LogName is the default log filename
	LogName string
}

// Sweep is the reconciliation tool, Seed the fixture generator.
var (
	Sweep = Tool{Name: "idsweep", EnvPrefix: "IDSWEEP", LedgerName: "idsweep-ledger.csv", LogName: "idsweep.log"}
	Seed  = Tool{Name: "idseed", EnvPrefix: "IDSEED", LedgerName: "idseed-ledger.csv", LogName: "idseed.log"}
)

// setDefaults registers every config key with its default on the viper
// instance.
func setDefaults(v *viper.Viper, tool Tool) {
	v.SetDefault("server.url", "")
	v.SetDefault("server.token", "")
	v.SetDefault("provider", "")
	v.SetDefault("exclusions", "")
	v.SetDefault("ledger", tool.LedgerName)
	v.SetDefault("logging.file", tool.LogName)
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.quiet", false)
	retry := DefaultRetry()
	v.SetDefault("retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("retry.delay_seconds", retry.DelaySeconds)
	v.SetDefault("retry.call_timeout", retry.CallTimeout.String())
	v.SetDefault("dry_run", false)
	v.SetDefault("auto_confirm", false)
	v.SetDefault("debug", false)
}

// ApplyDefaults sets default values for any unspecified configuration fields
// and normalizes values. Explicit values are preserved; zero values are
// replaced.
func ApplyDefaults(cfg *Config, tool Tool) {
	if cfg.Ledger == "" {
		cfg.Ledger = tool.LedgerName
	}

	applyLoggingDefaults(&cfg.Logging)

	// Retry fields are deliberately not defaulted here. Unset keys receive
	// their defaults from the viper layer; a zero that survives to this
	// point was set explicitly and must fail bounds validation instead of
	// being silently corrected.

	// --debug (or the DEBUG env toggle) wins over any configured level
	if cfg.Debug {
		cfg.Logging.Level = "DEBUG"
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
// File is deliberately left alone: its default comes from the viper layer,
// so an explicit logging.file: "" can still disable the file sink.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
}

// DefaultRetry returns the retry settings used when nothing overrides them.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		DelaySeconds: 5,
		CallTimeout:  30 * time.Second,
	}
}

// Default returns a Config with all default values applied for the tool.
func Default(tool Tool) *Config {
	cfg := &Config{
		Logging: LoggingConfig{File: tool.LogName},
		Retry:   DefaultRetry(),
	}
	ApplyDefaults(cfg, tool)
	return cfg
}

// Sample returns a config suitable for writing an initial config file:
// defaults plus placeholder server and provider values the operator must
// edit before first use.
func Sample(tool Tool) *Config {
	cfg := &Config{
		Server: ServerConfig{
			URL:   "https://directory.example.com",
			Token: "replace-with-api-token",
		},
		Provider: "ldap-main",
		Logging:  LoggingConfig{File: tool.LogName},
		Retry:    DefaultRetry(),
	}
	ApplyDefaults(cfg, tool)
	return cfg
}
