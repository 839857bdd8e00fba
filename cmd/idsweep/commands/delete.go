package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/reconcile"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the non-excluded user/identity pairs recorded by scan",
	Long: `Delete replays the CSV audit ledger written by a previous scan and
removes every recorded pair whose exclusion verdict is false: first the
user record, then the identity record. Excluded rows are skipped without
any directory call.

Verdicts come from the ledger alone. The exclusion list is not consulted
again, so a ledger edited or produced under a different exclusion file is
applied exactly as recorded.

When every row succeeds the ledger file is removed. If any row fails the
ledger is kept so the run can be repeated; already-deleted records count
as success on the rerun.`,
	Example: `  # Delete after reviewing the ledger
  idsweep delete

  # Non-interactive delete for scripting
  idsweep delete --yes

  # Show what would be deleted without touching the directory
  idsweep delete --dry-run`,
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd, false)
	if err != nil {
		return err
	}

	summary, err := newReconciler(client, cfg).Delete(cmd.Context())
	if err != nil {
		return cmdutil.HandleCancel(err)
	}

	if err := cmdutil.PrintOutput(os.Stdout, cmdutil.OutputFormat(cmd), summary, false, "", deleteView{summary}); err != nil {
		return err
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d user/identity pairs failed to delete", summary.Failed, summary.Total)
	}
	return nil
}

// deleteView renders a delete summary as a single table row.
type deleteView struct {
	s *reconcile.DeleteSummary
}

func (v deleteView) Headers() []string {
	return []string{"TOTAL", "SUCCESS", "FAILED", "SKIPPED", "DRY RUN", "LEDGER REMOVED"}
}

func (v deleteView) Rows() [][]string {
	return [][]string{{
		strconv.Itoa(v.s.Total),
		strconv.Itoa(v.s.Succeeded),
		strconv.Itoa(v.s.Failed),
		strconv.Itoa(v.s.Skipped),
		cmdutil.BoolToYesNo(v.s.DryRun),
		cmdutil.BoolToYesNo(v.s.LedgerRemoved),
	}}
}
