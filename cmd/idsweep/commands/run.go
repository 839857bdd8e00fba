package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/exclusions"
	"github.com/platformops/idsweep/internal/reconcile"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan and delete in a single invocation",
	Long: `Run executes a full sweep: a scan that records every provider match
in the audit ledger, immediately followed by a delete that replays the
ledger it just wrote. The confirmation prompt, dry-run behavior, and
ledger handling are identical to running the two commands separately.`,
	Example: `  # Full sweep with confirmation
  idsweep run --provider acme_ldap

  # Unattended sweep
  idsweep run --provider acme_ldap --yes`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd, true)
	if err != nil {
		return err
	}

	excl, err := exclusions.Load(cfg.Exclusions)
	if err != nil {
		return err
	}

	r := newReconciler(client, cfg)

	scanSummary, err := r.Scan(cmd.Context(), excl)
	if err != nil {
		return err
	}

	deleteSummary, err := r.Delete(cmd.Context())
	if err != nil {
		return cmdutil.HandleCancel(err)
	}

	summary := runSummary{Scan: scanSummary, Delete: deleteSummary}
	if err := cmdutil.PrintOutput(os.Stdout, cmdutil.OutputFormat(cmd), summary, false, "", runView{summary}); err != nil {
		return err
	}

	if deleteSummary.Failed > 0 {
		return fmt.Errorf("%d of %d user/identity pairs failed to delete", deleteSummary.Failed, deleteSummary.Total)
	}
	return nil
}

// runSummary combines the two sweep phases for structured output.
type runSummary struct {
	Scan   *reconcile.ScanSummary   `json:"scan" yaml:"scan"`
	Delete *reconcile.DeleteSummary `json:"delete" yaml:"delete"`
}

// runView renders a combined sweep summary as a single table row.
type runView struct {
	s runSummary
}

func (v runView) Headers() []string {
	return []string{"MATCHED", "EXCLUDED", "SUCCESS", "FAILED", "SKIPPED", "DRY RUN", "LEDGER REMOVED"}
}

func (v runView) Rows() [][]string {
	return [][]string{{
		strconv.Itoa(v.s.Scan.Matched),
		strconv.Itoa(v.s.Scan.Excluded),
		strconv.Itoa(v.s.Delete.Succeeded),
		strconv.Itoa(v.s.Delete.Failed),
		strconv.Itoa(v.s.Delete.Skipped),
		cmdutil.BoolToYesNo(v.s.Delete.DryRun),
		cmdutil.BoolToYesNo(v.s.Delete.LedgerRemoved),
	}}
}
