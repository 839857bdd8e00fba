// Package cmdutil provides shared glue for idsweep and idseed commands:
// config loading, logger setup, client construction, session checks, and
// output rendering.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/platformops/idsweep/internal/cli/output"
	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/config"
	"github.com/platformops/idsweep/internal/logger"
	"github.com/platformops/idsweep/pkg/apiclient"
)

// flagKeys maps CLI flag names to their config keys. Both tools share the
// table; flags a command does not define are skipped during binding.
var flagKeys = map[string]string{
	"server":       "server.url",
	"token":        "server.token",
	"provider":     "provider",
	"exclusions":   "exclusions",
	"ledger":       "ledger",
	"log-file":     "logging.file",
	"log-format":   "logging.format",
	"quiet":        "logging.quiet",
	"debug":        "debug",
	"dry-run":      "dry_run",
	"yes":          "auto_confirm",
	"max-retries":  "retry.max_attempts",
	"retry-delay":  "retry.delay_seconds",
	"call-timeout": "retry.call_timeout",
}

// BindFlags binds the known flags onto the viper instance so values set on
// the command line take precedence over environment and file sources.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig builds the immutable Config for one invocation of cmd:
// flags > environment > config file > defaults.
func LoadConfig(cmd *cobra.Command, tool config.Tool) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		configPath = ""
	}

	v := config.NewViper(tool, configPath)
	if err := BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v, tool)
}

// InitLogger configures the global logger from the resolved config.
func InitLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Quiet:  cfg.Logging.Quiet,
	})
}

// NewClient builds the directory client from the resolved config.
func NewClient(cfg *config.Config) (*apiclient.Client, error) {
	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("directory server URL is not configured (use --server, the environment, or the config file)")
	}

	opts := []apiclient.Option{apiclient.WithTimeout(cfg.Retry.CallTimeout)}
	if cfg.Server.Token != "" {
		opts = append(opts, apiclient.WithToken(cfg.Server.Token))
	}
	return apiclient.New(cfg.Server.URL, opts...), nil
}

// CheckSession verifies the server is reachable and the token is accepted
// before a phase starts any real work.
func CheckSession(ctx context.Context, client *apiclient.Client) error {
	session, err := client.WhoAmI(ctx)
	if err != nil {
		if apiclient.IsAuthError(err) {
			return fmt.Errorf("authentication failed, check the configured token: %w", err)
		}
		return fmt.Errorf("directory server is not reachable: %w", err)
	}
	logger.Debug("session verified", logger.KeyUser, session.Username)
	return nil
}

// RequireProvider rejects remote phases started without a provider tag; a
// scan without one would match every identity in the store.
func RequireProvider(cfg *config.Config) error {
	if cfg.Provider == "" {
		return fmt.Errorf("identity provider is required (use --provider, the environment, or the config file)")
	}
	return nil
}

// HandleCancel converts a clean operator cancellation into a quiet exit:
// "Aborted." on stdout and a nil error so the process exits 0. Every other
// error passes through unchanged.
func HandleCancel(err error) error {
	if err == nil {
		return nil
	}
	if prompt.IsCancelled(err) {
		fmt.Println("Aborted.")
		return nil
	}
	return err
}

// OutputFormat reads the --output flag, defaulting to table when the command
// does not define one.
func OutputFormat(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("output")
	if err != nil || format == "" {
		return output.FormatTable.String()
	}
	return format
}

// PrintOutput renders data in the requested format (table, json, or yaml).
// Table format prints emptyMsg when there is nothing to show, otherwise the
// renderer's table.
func PrintOutput(w io.Writer, format string, data any, isEmpty bool, emptyMsg string, renderer output.TableRenderer) error {
	parsed, err := output.ParseFormat(format)
	if err != nil {
		return err
	}

	switch parsed {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, renderer)
	}
}

// PrintSuccess prints a green success line to stdout. Setting NO_COLOR in
// the environment disables the coloring.
func PrintSuccess(msg string) {
	output.NewPrinter(os.Stdout, output.FormatTable, colorEnabled()).Success(msg)
}

// PrintWarning prints a yellow warning line to stdout.
func PrintWarning(msg string) {
	output.NewPrinter(os.Stdout, output.FormatTable, colorEnabled()).Warning(msg)
}

func colorEnabled() bool {
	return os.Getenv("NO_COLOR") == ""
}

// BoolToYesNo converts a boolean to "yes" or "no" for table display.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns the value if not empty, otherwise the fallback. Useful for
// table cells where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
