package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/exclusions"
	"github.com/platformops/idsweep/internal/reconcile"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Match provider identities and record them in the audit ledger",
	Long: `Scan lists every identity of the configured provider, resolves the
linked user for each match, and checks the username against the exclusion
list. All matches are written to the CSV audit ledger, replacing any
ledger left behind by a previous scan.

Scan never modifies the directory. Review the ledger, then run
"idsweep delete" to act on it.`,
	Example: `  # Scan using the configured provider and exclusion list
  idsweep scan

  # Scan a specific provider with an explicit exclusion file
  idsweep scan --provider acme_ldap --exclusions keep.txt`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd, true)
	if err != nil {
		return err
	}

	excl, err := exclusions.Load(cfg.Exclusions)
	if err != nil {
		return err
	}

	summary, err := newReconciler(client, cfg).Scan(cmd.Context(), excl)
	if err != nil {
		return err
	}

	return cmdutil.PrintOutput(os.Stdout, cmdutil.OutputFormat(cmd), summary, false, "", scanView{summary})
}

// scanView renders a scan summary as a single table row.
type scanView struct {
	s *reconcile.ScanSummary
}

func (v scanView) Headers() []string {
	return []string{"PROVIDER", "MATCHED", "RECORDED", "EXCLUDED", "ACTIONABLE", "LEDGER"}
}

func (v scanView) Rows() [][]string {
	return [][]string{{
		v.s.Provider,
		strconv.Itoa(v.s.Matched),
		strconv.Itoa(v.s.Recorded),
		strconv.Itoa(v.s.Excluded),
		strconv.Itoa(v.s.Actionable),
		v.s.Ledger,
	}}
}
