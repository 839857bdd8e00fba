package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/fixtures"
)

var (
	createCount  int
	createPrefix string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create fixture users with linked identities and mappings",
	Long: `Create provisions numbered fixture users ("qa-001", "qa-002", ...) for
the configured provider. Each user gets an identity and an identity
mapping, and every usable pair is recorded in the seed ledger for later
cleanup.

Users that already exist are recorded and counted as skipped. A pair
that cannot be fully assembled is rolled back, so no half-created
fixture survives the run.`,
	Example: `  # Create five qa fixtures
  idseed create --provider acme_ldap

  # Create twenty fixtures with a custom prefix
  idseed create --provider acme_ldap --count 20 --prefix loadtest`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().IntVar(&createCount, "count", 5, "Number of fixture users to create")
	createCmd.Flags().StringVar(&createPrefix, "prefix", "qa", "Username prefix for fixture users")
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd)
	if err != nil {
		return err
	}

	summary, err := newSeeder(client, cfg).Create(cmd.Context(), fixtures.CreateOptions{
		Count:  createCount,
		Prefix: createPrefix,
	})
	if err != nil {
		return err
	}

	if summary.DryRun {
		fmt.Printf("Dry run: would create %d fixture users with prefix %q\n", summary.Requested, createPrefix)
		return nil
	}

	if summary.Failed == 0 {
		cmdutil.PrintSuccess(fmt.Sprintf("Fixtures ready: %d created, %d already existed (of %d)",
			summary.Created, summary.Skipped, summary.Requested))
	} else {
		cmdutil.PrintWarning(fmt.Sprintf("Fixtures partially ready: %d created, %d already existed, %d failed (of %d)",
			summary.Created, summary.Skipped, summary.Failed, summary.Requested))
		for _, result := range summary.Results {
			if result.Status == fixtures.StatusFailed {
				fmt.Printf("  failed: %s (%s)\n", result.Username, result.Reason)
			}
		}
	}
	fmt.Printf("Seed ledger: %s\n", summary.Ledger)

	if !summary.Succeeded() {
		return fmt.Errorf("no usable fixtures were created")
	}
	return nil
}
