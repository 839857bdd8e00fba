package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/cli/timeutil"
	"github.com/platformops/idsweep/internal/cmdutil"
	"github.com/platformops/idsweep/internal/exclusions"
	"github.com/platformops/idsweep/internal/retry"
	"github.com/platformops/idsweep/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List provider identities without writing the ledger",
	Long: `List shows every identity of the configured provider together with its
linked user and the verdict the exclusion list would assign today. It is
a read-only preview of the next scan: nothing is written to the ledger
and the directory is not modified.`,
	Example: `  # Preview the next sweep
  idsweep list --provider acme_ldap

  # Machine-readable listing
  idsweep list --provider acme_ldap -o json`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup(cmd, true)
	if err != nil {
		return err
	}

	excl, err := exclusions.Load(cfg.Exclusions)
	if err != nil {
		return err
	}

	var identities []apiclient.Identity
	err = retry.New(cfg.Retry).Do(cmd.Context(), "list identities", func(ctx context.Context) error {
		var listErr error
		identities, listErr = client.ListIdentities(ctx, cfg.Provider)
		return listErr
	})
	if err != nil {
		return err
	}

	// The provider tag is a full-equality filter, never a prefix, so the
	// server response is re-checked the same way scan does.
	views := make(identityList, 0, len(identities))
	for _, identity := range identities {
		if identity.Provider != cfg.Provider {
			continue
		}
		views = append(views, identityView{
			Identity:  identity.Name,
			User:      identity.User,
			Provider:  identity.Provider,
			CreatedAt: identity.CreatedAt,
			Excluded:  identity.User != "" && excl.IsExcluded(identity.User),
		})
	}

	return cmdutil.PrintOutput(os.Stdout, cmdutil.OutputFormat(cmd), views, len(views) == 0, "No identities found.", views)
}

// identityView is one identity in list output.
type identityView struct {
	Identity  string    `json:"identity" yaml:"identity"`
	User      string    `json:"user,omitempty" yaml:"user,omitempty"`
	Provider  string    `json:"provider" yaml:"provider"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Excluded  bool      `json:"excluded" yaml:"excluded"`
}

// identityList renders identities in table format.
type identityList []identityView

func (l identityList) Headers() []string {
	return []string{"IDENTITY", "USER", "PROVIDER", "CREATED", "EXCLUDED"}
}

func (l identityList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, v := range l {
		rows = append(rows, []string{
			v.Identity,
			cmdutil.EmptyOr(v.User, "-"),
			v.Provider,
			timeutil.FormatTime(v.CreatedAt),
			cmdutil.BoolToYesNo(v.Excluded),
		})
	}
	return rows
}
