package fixtures

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/ledger"
	"github.com/platformops/idsweep/internal/logger"
	"github.com/platformops/idsweep/pkg/apiclient"
)

// CleanupOptions parameterize one cleanup run.
type CleanupOptions struct {
	// Prefix is the username prefix used to rediscover fixtures when no
	// seed ledger survives from the create run.
	Prefix string
}

// CleanupSummary reports the outcome of one cleanup run.
type CleanupSummary struct {
	Total         int      `json:"total" yaml:"total"`
	Succeeded     int      `json:"success" yaml:"success"`
	Failed        int      `json:"failed" yaml:"failed"`
	Deleted       []string `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	FailedUsers   []string `json:"failed_users,omitempty" yaml:"failed_users,omitempty"`
	FromDiscovery bool     `json:"from_discovery" yaml:"from_discovery"`
	DryRun        bool     `json:"dry_run" yaml:"dry_run"`
	LedgerRemoved bool     `json:"ledger_removed" yaml:"ledger_removed"`
	Ledger        string   `json:"ledger" yaml:"ledger"`
}

// Cleanup deletes the fixture pairs recorded in the seed ledger. When the
// ledger is missing or empty, the live store is searched for users carrying
// the fixture prefix and the worklist is rebuilt from that discovery.
//
// Each pair is deleted identity first; the user is only removed once its
// identity is gone or confirmed absent. The ledger file is removed only
// after a pass with zero failures.
//
// Returns prompt.ErrCancelled when the operator declines the confirmation.
func (s *Seeder) Cleanup(ctx context.Context, opts CleanupOptions) (*CleanupSummary, error) {
	summary := &CleanupSummary{Ledger: s.cfg.Ledger, DryRun: s.cfg.DryRun}

	rows, err := ledger.ReadSeed(s.cfg.Ledger)
	if err != nil && !errors.Is(err, ledger.ErrMissing) {
		return nil, err
	}
	if len(rows) == 0 {
		// Zero rows covers a missing ledger and a header-only one: a create
		// run interrupted right after BeginWrite leaves the header with no
		// rows while live fixtures may already exist.
		logger.Warn("seed ledger missing or empty, discovering fixtures by prefix",
			logger.KeyPath, s.cfg.Ledger,
			"prefix", opts.Prefix)
		rows, err = s.discover(ctx, opts.Prefix)
		if err != nil {
			return nil, err
		}
		summary.FromDiscovery = true
	}

	summary.Total = len(rows)
	if len(rows) == 0 {
		logger.Info("no fixture users to clean up")
		return summary, nil
	}

	logger.Info("starting fixture cleanup",
		logger.KeyPhase, "cleanup",
		logger.KeyCount, len(rows),
		"from_discovery", summary.FromDiscovery,
		logger.KeyDryRun, s.cfg.DryRun)

	if s.cfg.DryRun {
		for _, row := range rows {
			logger.Info("dry-run: would delete fixture",
				logger.KeyUser, row.User,
				logger.KeyIdentity, row.Identity)
		}
		logger.Info("dry-run complete, no deletions performed", "total", summary.Total)
		return summary, nil
	}

	if !s.cfg.AutoConfirm {
		label := fmt.Sprintf("Delete %d fixture user/identity pairs", len(rows))
		confirmed, err := s.confirm.Confirm(label)
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

		if err := s.deleteFixture(ctx, row); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			summary.Failed++
			summary.FailedUsers = append(summary.FailedUsers, row.User)
			logger.Error("failed to delete fixture",
				logger.KeyUser, row.User,
				logger.KeyIdentity, row.Identity,
				logger.KeyError, err)
		} else {
			summary.Succeeded++
			summary.Deleted = append(summary.Deleted, row.User)
		}

		if n%5 == 0 || n == len(rows) {
			logger.Info("cleanup progress",
				logger.KeyPhase, "cleanup",
				logger.KeyCount, n,
				"total", len(rows),
				"success", summary.Succeeded,
				"failed", summary.Failed,
				"percent", n*100/len(rows))
		}
	}

	// Per-username report so the log names every outcome individually
	for _, username := range summary.Deleted {
		logger.Info("fixture deleted", logger.KeyUser, username)
	}
	for _, username := range summary.FailedUsers {
		logger.Warn("fixture not deleted", logger.KeyUser, username)
	}

	logger.Info("fixture cleanup complete",
		"success", summary.Succeeded,
		"failed", summary.Failed,
		"total", summary.Succeeded+summary.Failed)

	if summary.Failed == 0 {
		if err := ledger.Remove(s.cfg.Ledger); err != nil {
			logger.Warn("failed to remove seed ledger",
				logger.KeyPath, s.cfg.Ledger,
				logger.KeyError, err)
		} else {
			summary.LedgerRemoved = true
		}
	} else {
		logger.Warn("seed ledger retained for inspection and retry",
			logger.KeyPath, s.cfg.Ledger,
			"failed", summary.Failed)
	}

	return summary, nil
}

// discover rebuilds the cleanup worklist from live users whose names carry
// the fixture prefix.
func (s *Seeder) discover(ctx context.Context, prefix string) ([]ledger.SeedRow, error) {
	if prefix == "" {
		return nil, fmt.Errorf("fixture username prefix must not be empty for discovery")
	}

	var users []apiclient.User
	err := s.retry.Do(ctx, "list users", func(ctx context.Context) error {
		var listErr error
		users, listErr = s.client.ListUsers(ctx)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover fixture users: %w", err)
	}

	rows := make([]ledger.SeedRow, 0)
	for _, user := range users {
		if !strings.HasPrefix(user.Username, prefix+"-") {
			continue
		}
		rows = append(rows, ledger.SeedRow{
			Identity: apiclient.IdentityName(s.cfg.Provider, user.Username),
			User:     user.Username,
			Provider: s.cfg.Provider,
		})
	}

	logger.Info("discovered fixture users by prefix",
		"prefix", prefix,
		logger.KeyCount, len(rows))
	return rows, nil
}

// deleteFixture removes one fixture pair, identity first. The user is only
// deleted after its identity is confirmed gone, so an interrupted cleanup
// never strands an identity without its user.
func (s *Seeder) deleteFixture(ctx context.Context, row ledger.SeedRow) error {
	if err := s.deleteIdentity(ctx, row.Identity); err != nil {
		return err
	}
	if row.User == "" {
		return nil
	}
	return s.deleteUser(ctx, row.User)
}

// deleteIdentity deletes one identity, treating an already-absent target as
// success.
func (s *Seeder) deleteIdentity(ctx context.Context, name string) error {
	err := s.retry.Do(ctx, "delete identity", func(ctx context.Context) error {
		return s.client.DeleteIdentity(ctx, name)
	})
	if err == nil {
		return nil
	}
	if apiclient.IsNotFound(err) || (ctx.Err() == nil && s.identityGone(ctx, name)) {
		logger.Info("identity already absent, treating as deleted", logger.KeyIdentity, name)
		return nil
	}
	return fmt.Errorf("failed to delete identity %q: %w", name, err)
}

// deleteUser deletes one user, treating an already-absent target as success.
func (s *Seeder) deleteUser(ctx context.Context, username string) error {
	err := s.retry.Do(ctx, "delete user", func(ctx context.Context) error {
		return s.client.DeleteUser(ctx, username)
	})
	if err == nil {
		return nil
	}
	if apiclient.IsNotFound(err) || (ctx.Err() == nil && s.userGone(ctx, username)) {
		logger.Info("user already absent, treating as deleted", logger.KeyUser, username)
		return nil
	}
	return fmt.Errorf("failed to delete user %q: %w", username, err)
}

func (s *Seeder) identityGone(ctx context.Context, name string) bool {
	_, err := s.client.GetIdentity(ctx, name)
	return apiclient.IsNotFound(err)
}

func (s *Seeder) userGone(ctx context.Context, username string) bool {
	_, err := s.client.GetUser(ctx, username)
	return apiclient.IsNotFound(err)
}
