package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/ledger"
	"github.com/platformops/idsweep/internal/logger"
	"github.com/platformops/idsweep/pkg/apiclient"
)

// DeleteSummary reports the outcome of one delete pass.
type DeleteSummary struct {
	Total         int    `json:"total" yaml:"total"`
	Succeeded     int    `json:"success" yaml:"success"`
	Failed        int    `json:"failed" yaml:"failed"`
	Skipped       int    `json:"skipped" yaml:"skipped"`
	DryRun        bool   `json:"dry_run" yaml:"dry_run"`
	LedgerRemoved bool   `json:"ledger_removed" yaml:"ledger_removed"`
	Ledger        string `json:"ledger" yaml:"ledger"`
}

// Delete consumes the audit ledger row by row and removes the non-excluded
// user/identity pairs from the directory.
//
// The ledger is the single source of truth: excluded verdicts are read from
// the rows, never re-evaluated against the exclusion source, so a delete
// only ever acts on what a scan explicitly recorded. A missing ledger is a
// fatal error; an empty one is a trivial success. The ledger file is removed
// only after a pass with zero failures, otherwise it is retained as the
// worklist for a retry.
//
// Returns prompt.ErrCancelled when the operator declines the confirmation.
func (r *Reconciler) Delete(ctx context.Context) (*DeleteSummary, error) {
	rows, err := ledger.ReadReconcile(r.cfg.Ledger)
	if err != nil {
		if errors.Is(err, ledger.ErrMissing) {
			return nil, fmt.Errorf("%w (run a scan first)", err)
		}
		return nil, err
	}

	summary := &DeleteSummary{Total: len(rows), Ledger: r.cfg.Ledger, DryRun: r.cfg.DryRun}

	if len(rows) == 0 {
		logger.Info("audit ledger has no rows, nothing to delete",
			logger.KeyPath, r.cfg.Ledger)
		return summary, nil
	}

	excluded := 0
	for _, row := range rows {
		if row.Excluded {
			excluded++
		}
	}
	actionable := len(rows) - excluded

	logger.Info("starting delete pass",
		logger.KeyPhase, "delete",
		"total", len(rows),
		"excluded", excluded,
		"actionable", actionable,
		logger.KeyDryRun, r.cfg.DryRun)

	if r.cfg.DryRun {
		r.logDryRun(rows, summary)
		return summary, nil
	}

	if actionable > 0 && !r.cfg.AutoConfirm {
		label := fmt.Sprintf("Delete %d user/identity pairs", actionable)
		confirmed, err := r.confirm.Confirm(label)
		if err != nil {
			if prompt.IsAborted(err) {
				return nil, prompt.ErrCancelled
			}
			return nil, fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !confirmed {
			return nil, prompt.ErrCancelled
		}
	}

	for i, row := range rows {
		n := i + 1

		if row.Excluded {
			summary.Skipped++
			logger.Debug("skipping excluded user",
				logger.KeyUser, row.User,
				logger.KeyIdentity, row.Identity)
		} else if err := r.deleteRow(ctx, row); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			summary.Failed++
			logger.Error("failed to delete user/identity pair",
				logger.KeyUser, row.User,
				logger.KeyIdentity, row.Identity,
				logger.KeyError, err)
		} else {
			summary.Succeeded++
		}

		if n%5 == 0 || n == len(rows) {
			logger.Info("delete progress",
				logger.KeyPhase, "delete",
				logger.KeyCount, n,
				"total", len(rows),
				"success", summary.Succeeded,
				"failed", summary.Failed,
				"skipped", summary.Skipped,
				"percent", n*100/len(rows))
		}
	}

	logger.Info("delete pass complete",
		"success", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"total", summary.Succeeded+summary.Failed+summary.Skipped)

	if summary.Failed == 0 {
		if err := ledger.Remove(r.cfg.Ledger); err != nil {
			logger.Warn("failed to remove audit ledger",
				logger.KeyPath, r.cfg.Ledger,
				logger.KeyError, err)
		} else {
			summary.LedgerRemoved = true
			logger.Info("audit ledger removed", logger.KeyPath, r.cfg.Ledger)
		}
	} else {
		logger.Warn("audit ledger retained for inspection and retry",
			logger.KeyPath, r.cfg.Ledger,
			"failed", summary.Failed)
	}

	return summary, nil
}

// logDryRun walks the rows and logs what a real pass would do. No remote
// calls are made and the ledger is retained.
func (r *Reconciler) logDryRun(rows []ledger.ReconcileRow, summary *DeleteSummary) {
	for _, row := range rows {
		if row.Excluded {
			logger.Info("dry-run: excluded, would skip",
				logger.KeyUser, row.User,
				logger.KeyIdentity, row.Identity)
			summary.Skipped++
			continue
		}
		if row.User != "" {
			logger.Info("dry-run: would delete user", logger.KeyUser, row.User)
		}
		logger.Info("dry-run: would delete identity", logger.KeyIdentity, row.Identity)
	}
	logger.Info("dry-run complete, no deletions performed",
		"total", summary.Total,
		"skipped", summary.Skipped)
}

// deleteRow removes the user (when the row has one) and then the identity.
// Both deletions are always attempted; the row succeeds only when each
// target is deleted or confirmed already absent.
func (r *Reconciler) deleteRow(ctx context.Context, row ledger.ReconcileRow) error {
	var userErr error
	if row.User != "" {
		userErr = r.deleteUser(ctx, row.User)
	}
	identityErr := r.deleteIdentity(ctx, row.Identity)
	return errors.Join(userErr, identityErr)
}

// deleteUser deletes one user, treating an already-absent target as
// success. When the delete fails for any other reason, a lookup decides
// whether the target is in fact gone.
func (r *Reconciler) deleteUser(ctx context.Context, username string) error {
	err := r.retry.Do(ctx, "delete user", func(ctx context.Context) error {
		return r.client.DeleteUser(ctx, username)
	})
	if err == nil {
		logger.Debug("user deleted", logger.KeyUser, username)
		return nil
	}
	if apiclient.IsNotFound(err) || (ctx.Err() == nil && r.userGone(ctx, username)) {
		logger.Info("user already absent, treating as deleted", logger.KeyUser, username)
		return nil
	}
	return fmt.Errorf("failed to delete user %q: %w", username, err)
}

// deleteIdentity is deleteUser's counterpart for identity records.
func (r *Reconciler) deleteIdentity(ctx context.Context, name string) error {
	err := r.retry.Do(ctx, "delete identity", func(ctx context.Context) error {
		return r.client.DeleteIdentity(ctx, name)
	})
	if err == nil {
		logger.Debug("identity deleted", logger.KeyIdentity, name)
		return nil
	}
	if apiclient.IsNotFound(err) || (ctx.Err() == nil && r.identityGone(ctx, name)) {
		logger.Info("identity already absent, treating as deleted", logger.KeyIdentity, name)
		return nil
	}
	return fmt.Errorf("failed to delete identity %q: %w", name, err)
}

func (r *Reconciler) userGone(ctx context.Context, username string) bool {
	_, err := r.client.GetUser(ctx, username)
	return apiclient.IsNotFound(err)
}

func (r *Reconciler) identityGone(ctx context.Context, name string) bool {
	_, err := r.client.GetIdentity(ctx, name)
	return apiclient.IsNotFound(err)
}
