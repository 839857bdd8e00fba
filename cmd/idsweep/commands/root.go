// Package commands implements the CLI commands for the idsweep reconciler.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	configcmd "github.com/platformops/idsweep/cmd/idsweep/commands/config"
	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/config"
	"github.com/platformops/idsweep/internal/reconcile"
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
	Use:   "idsweep",
	Short: "Reconcile directory users and identities against an exclusion list",
	Long: `idsweep reconciles directory user accounts against an exclusion list.

A sweep runs in two phases. "idsweep scan" matches every identity of the
configured provider, consults the exclusion list, and records the matches
in a CSV audit ledger. "idsweep delete" replays that ledger and removes
the non-excluded user/identity pairs from the directory. "idsweep run"
chains both phases in a single invocation.

Exclusion verdicts are decided at scan time and persisted in the ledger.
Delete trusts the recorded verdicts and never re-reads the exclusion
list, so the set of protected accounts cannot drift between phases.`,
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
	pf.String("provider", "", "Identity provider whose records are swept")
	pf.String("exclusions", "", "Path to the exclusion list file")
	pf.String("ledger", config.Sweep.LedgerName, "Path of the CSV audit ledger")
	pf.String("log-file", config.Sweep.LogName, "Log file path")
	pf.String("log-format", "text", "Log format (text or json)")
	pf.BoolP("quiet", "q", false, "Suppress console log output")
	pf.Bool("debug", false, "Enable debug logging")
	pf.Bool("dry-run", false, "Log planned actions without changing anything")
	pf.BoolP("yes", "y", false, "Skip confirmation prompts")
	pf.Int("max-retries", retryDefaults.MaxAttempts, "Attempts per directory call before giving up")
	pf.Int("retry-delay", retryDefaults.DelaySeconds, "Seconds between retry attempts")
	pf.Duration("call-timeout", retryDefaults.CallTimeout, "Timeout for a single directory call")
	pf.StringP("output", "o", "table", "Output format (table, json, yaml)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configcmd.Cmd)
}

// setup loads configuration, initializes logging, and builds a directory
// client with a verified session. Every remote command starts here.
func setup(cmd *cobra.Command, requireProvider bool) (*config.Config, *apiclient.Client, error) {
	cfg, err := cmdutil.LoadConfig(cmd, config.Sweep)
	if err != nil {
		return nil, nil, err
	}
	if err := cmdutil.InitLogger(cfg); err != nil {
		return nil, nil, err
	}
	if requireProvider {
		if err := cmdutil.RequireProvider(cfg); err != nil {
			return nil, nil, err
		}
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

// newReconciler assembles the reconciliation engine from loaded config.
func newReconciler(client *apiclient.Client, cfg *config.Config) *reconcile.Reconciler {
	return reconcile.New(client, retry.New(cfg.Retry), prompt.Terminal{}, cfg)
}
