package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/cli/output"
	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved configuration",
	Long: `Display the configuration idsweep would run with, after merging
command-line flags, environment variables, the config file, and built-in
defaults. The server token is redacted.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show the resolved config as YAML
  idsweep config show

  # Show as JSON
  idsweep config show --output json

  # Show a specific config file
  idsweep config show --config /etc/idsweep/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig(cmd, config.Sweep)
	if err != nil {
		return err
	}

	// The loaded config is shared and read-only; redact a copy.
	redacted := *cfg
	if redacted.Server.Token != "" {
		redacted.Server.Token = "[REDACTED]"
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, redacted)
	default:
		return output.PrintYAML(os.Stdout, redacted)
	}
}
