package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/fixtures"
)

var cleanupPrefix string

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove the fixture users provisioned by create",
	Long: `Cleanup removes fixture users together with their identities and
mappings. When the seed ledger from a create run is present it is
replayed exactly; when it is missing, live users whose names carry the
fixture prefix are rediscovered and removed instead.

Each pair is deleted identity first, and records that are already gone
count as success, so an interrupted cleanup can simply be rerun. The
ledger file is removed only after a pass with zero failures.`,
	Example: `  # Remove everything the last create run provisioned
  idseed cleanup

  # Rediscover fixtures by prefix when the ledger is gone
  idseed cleanup --prefix loadtest

  # Non-interactive cleanup for CI teardown
  idseed cleanup --yes`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupPrefix, "prefix", "qa", "Username prefix used to rediscover fixtures")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd)
	if err != nil {
		return err
	}

	summary, err := newSeeder(client, cfg).Cleanup(cmd.Context(), fixtures.CleanupOptions{
		Prefix: cleanupPrefix,
	})
	if err != nil {
		return cmdutil.HandleCancel(err)
	}

	if summary.DryRun {
		fmt.Printf("Dry run: would delete %d fixture user/identity pairs\n", summary.Total)
		return nil
	}

	if summary.Total == 0 {
		fmt.Println("No fixture users to clean up.")
		return nil
	}

	if summary.Failed == 0 {
		cmdutil.PrintSuccess(fmt.Sprintf("Cleanup done: %d fixture pairs deleted", summary.Succeeded))
	} else {
		cmdutil.PrintWarning(fmt.Sprintf("Cleanup incomplete: %d deleted, %d failed (of %d)",
			summary.Succeeded, summary.Failed, summary.Total))
		for _, user := range summary.FailedUsers {
			fmt.Printf("  failed: %s\n", user)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d fixture pairs failed to delete", summary.Failed, summary.Total)
	}
	return nil
}
