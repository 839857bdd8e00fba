// Package commands implements the CLI commands for the idseed fixture tool.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/config"
	"github.com/platformops/idsweep/internal/fixtures"
	"github.com/platformops/idsweep/internal/retry"
	"github.com/platformops/idsweep/pkg/apiclient"
)

// Build-time version information, set via ldflags by the main package.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "idseed",
	Short: "Create and remove directory fixture users for sweep testing",
	Long: `idseed provisions disposable fixture records in the directory server.

"idseed create" creates numbered user accounts for the configured
provider, each with a linked identity and identity mapping, and records
them in a seed ledger. "idseed cleanup" removes what create provisioned,
replaying the seed ledger when present and rediscovering fixtures by
username prefix when it is not.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the root command with the given context. The context
// is cancelled on SIGINT/SIGTERM by the main package.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	retryDefaults := config.DefaultRetry()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default: search standard locations)")
	pf.String("server", "", "Directory API server URL")
	pf.String("token", "", "Bearer token for the directory API")
	pf.String("provider", "", "Identity provider the fixtures belong to")
	pf.String("exclusions", "", "Path to the exclusion list file")
	pf.String("ledger", config.Seed.LedgerName, "Path of the CSV seed ledger")
	pf.String("log-file", config.Seed.LogName, "Log file path")
	pf.String("log-format", "text", "Log format (text or json)")
	pf.BoolP("quiet", "q", false, "Suppress console log output")
	pf.Bool("debug", false, "Enable debug logging")
	pf.Bool("dry-run", false, "Log planned actions without changing anything")
	pf.BoolP("yes", "y", false, "Skip confirmation prompts")
	pf.Int("max-retries", retryDefaults.MaxAttempts, "Attempts per directory call before giving up")
	pf.Int("retry-delay", retryDefaults.DelaySeconds, "Seconds between retry attempts")
	pf.Duration("call-timeout", retryDefaults.CallTimeout, "Timeout for a single directory call")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration, initializes logging, and builds a directory
// client with a verified session. Fixtures are always provider-scoped, so
// the provider is required for every remote command.
func setup(cmd *cobra.Command) (*config.Config, *apiclient.Client, error) {
	cfg, err := cmdutil.LoadConfig(cmd, config.Seed)
	if err != nil {
		return nil, nil, err
	}
	if err := cmdutil.InitLogger(cfg); err != nil {
		return nil, nil, err
	}
	if err := cmdutil.RequireProvider(cfg); err != nil {
		return nil, nil, err
	}
	client, err := cmdutil.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := cmdutil.CheckSession(cmd.Context(), client); err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

// newSeeder assembles the fixture engine from loaded config.
func newSeeder(client *apiclient.Client, cfg *config.Config) *fixtures.Seeder {
	return fixtures.New(client, retry.New(cfg.Retry), prompt.Terminal{}, cfg)
}
