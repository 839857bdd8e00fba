// Package reconcile implements the two phases of the identity
// reconciliation workflow: a scan that snapshots provider-tagged
// identities and their exclusion verdicts into the audit ledger, and a
// delete pass that consumes exactly that snapshot.
package reconcile

import (
	"context"
	"fmt"

	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/config"
	"github.com/platformops/idsweep/internal/exclusions"
	"github.com/platformops/idsweep/internal/ledger"
	"github.com/platformops/idsweep/internal/logger"
	"github.com/platformops/idsweep/internal/retry"
	"github.com/platformops/idsweep/pkg/apiclient"
)

// DirectoryClient is the slice of the directory API the reconciler uses.
// *apiclient.Client satisfies it; tests may substitute their own.
type DirectoryClient interface {
	ListIdentities(ctx context.Context, provider string) ([]apiclient.Identity, error)
	GetIdentity(ctx context.Context, name string) (*apiclient.Identity, error)
	GetUser(ctx context.Context, username string) (*apiclient.User, error)
	DeleteUser(ctx context.Context, username string) error
	DeleteIdentity(ctx context.Context, name string) error
}

// Reconciler drives the scan and delete phases against one directory.
type Reconciler struct {
	client  DirectoryClient
	retry   *retry.Executor
	confirm prompt.Confirmer
	cfg     *config.Config
}

// New builds a Reconciler. The exclusion set is a scan-phase input and is
// passed to Scan directly: the delete phase must only ever see the verdicts
// persisted in the ledger.
func New(client DirectoryClient, exec *retry.Executor, confirm prompt.Confirmer, cfg *config.Config) *Reconciler {
	return &Reconciler{
		client:  client,
		retry:   exec,
		confirm: confirm,
		cfg:     cfg,
	}
}

// ScanSummary reports what a scan pass matched and recorded.
type ScanSummary struct {
	Provider      string `json:"provider" yaml:"provider"`
	Matched       int    `json:"matched" yaml:"matched"`
	Recorded      int    `json:"recorded" yaml:"recorded"`
	Excluded      int    `json:"excluded" yaml:"excluded"`
	Actionable    int    `json:"actionable" yaml:"actionable"`
	FetchFailures int    `json:"fetch_failures" yaml:"fetch_failures"`
	Ledger        string `json:"ledger" yaml:"ledger"`
}

// Scan enumerates the identities tagged with the configured provider and
// writes one ledger row per identity: its name, its linked user (empty when
// unlinked), and whether that user is protected by the exclusion set.
//
// The ledger is truncated first, so it always reflects exactly one pass.
// A per-identity fetch failure is logged and skipped; the identity is then
// absent from the ledger and can never be deleted by this pass. Dry-run
// changes nothing here: the scan is read-only apart from the ledger itself.
func (r *Reconciler) Scan(ctx context.Context, excl *exclusions.Set) (*ScanSummary, error) {
	summary := &ScanSummary{Provider: r.cfg.Provider, Ledger: r.cfg.Ledger}

	logger.Info("starting scan",
		logger.KeyPhase, "scan",
		logger.KeyProvider, r.cfg.Provider,
		logger.KeyPath, r.cfg.Ledger,
		"exclusions", excl.Len(),
		logger.KeyDryRun, r.cfg.DryRun)

	w, err := ledger.BeginWrite(r.cfg.Ledger, ledger.ReconcileHeader)
	if err != nil {
		return nil, err
	}
	defer func() { _ = w.Close() }()

	var identities []apiclient.Identity
	err = r.retry.Do(ctx, "list identities", func(ctx context.Context) error {
		var listErr error
		identities, listErr = r.client.ListIdentities(ctx, r.cfg.Provider)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	// The server already filters by provider, but the match is re-checked
	// here: the provider tag is a full-equality filter, never a prefix.
	matched := make([]apiclient.Identity, 0, len(identities))
	for _, identity := range identities {
		if identity.Provider == r.cfg.Provider {
			matched = append(matched, identity)
		}
	}
	summary.Matched = len(matched)

	if len(matched) == 0 {
		logger.Warn("no identities matched the configured provider",
			logger.KeyProvider, r.cfg.Provider)
		return summary, nil
	}

	for i, identity := range matched {
		n := i + 1

		var detail *apiclient.Identity
		err := r.retry.Do(ctx, "get identity", func(ctx context.Context) error {
			var getErr error
			detail, getErr = r.client.GetIdentity(ctx, identity.Name)
			return getErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("skipping identity, detail fetch failed",
				logger.KeyIdentity, identity.Name,
				logger.KeyError, err)
			summary.FetchFailures++
			continue
		}

		username := detail.User
		excluded := username != "" && excl.IsExcluded(username)

		row := ledger.ReconcileRow{Identity: detail.Name, User: username, Excluded: excluded}
		if err := w.Append(row.Fields()...); err != nil {
			return nil, err
		}
		summary.Recorded++
		if excluded {
			summary.Excluded++
		}

		if n == 1 || n%5 == 0 {
			logger.Info("scan progress",
				logger.KeyPhase, "scan",
				logger.KeyCount, n,
				"total", len(matched),
				logger.KeyIdentity, detail.Name)
		}
	}

	summary.Actionable = summary.Recorded - summary.Excluded

	logger.Info("scan complete",
		logger.KeyPhase, "scan",
		"matched", summary.Matched,
		"excluded", summary.Excluded,
		"actionable", summary.Actionable,
		"fetch_failures", summary.FetchFailures,
		logger.KeyPath, r.cfg.Ledger)

	return summary, nil
}
