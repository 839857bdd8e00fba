package fixtures

import (
	"context"
	"fmt"

	"github.com/platformops/idsweep/internal/ledger"
	"github.com/platformops/idsweep/internal/logger"
	"github.com/platformops/idsweep/pkg/apiclient"
)

// CreateOptions parameterize one create run.
type CreateOptions struct {
	// Count is how many fixture users to create, numbered 1..Count.
	Count int
	// Prefix is the username prefix; usernames are "<prefix>-NNN".
	Prefix string
}

// CreateSummary reports the outcome of one create run.
type CreateSummary struct {
	Requested int          `json:"requested" yaml:"requested"`
	Created   int          `json:"created" yaml:"created"`
	Skipped   int          `json:"skipped" yaml:"skipped"`
	Failed    int          `json:"failed" yaml:"failed"`
	DryRun    bool         `json:"dry_run" yaml:"dry_run"`
	Ledger    string       `json:"ledger" yaml:"ledger"`
	Results   []UserResult `json:"results,omitempty" yaml:"results,omitempty"`
}

// Succeeded reports whether the run created or re-found at least one
// fixture. A run with some failed users still counts as a success as long
// as a single pair is usable.
func (s *CreateSummary) Succeeded() bool {
	return s.Created+s.Skipped > 0
}

// Create builds Count synthetic user/identity pairs named
// "<prefix>-001".."<prefix>-NNN" under the configured provider and records
// each usable pair in the seed ledger.
//
// A user that already exists is recorded and counted as skipped, not
// failed. Partial creations are compensated: an identity that cannot be
// created removes the just-created user, and a mapping that cannot be
// created removes both, so no half-assembled fixture ever survives a run.
func (s *Seeder) Create(ctx context.Context, opts CreateOptions) (*CreateSummary, error) {
	if opts.Count < 1 {
		return nil, fmt.Errorf("fixture count must be at least 1, got %d", opts.Count)
	}
	if opts.Prefix == "" {
		return nil, fmt.Errorf("fixture username prefix must not be empty")
	}

	summary := &CreateSummary{Requested: opts.Count, Ledger: s.cfg.Ledger, DryRun: s.cfg.DryRun}

	logger.Info("starting fixture create",
		logger.KeyPhase, "create",
		logger.KeyProvider, s.cfg.Provider,
		"prefix", opts.Prefix,
		logger.KeyCount, opts.Count,
		logger.KeyDryRun, s.cfg.DryRun)

	if s.cfg.DryRun {
		for i := 1; i <= opts.Count; i++ {
			username := fixtureUsername(opts.Prefix, i)
			logger.Info("dry-run: would create user and identity",
				logger.KeyUser, username,
				logger.KeyIdentity, apiclient.IdentityName(s.cfg.Provider, username))
		}
		logger.Info("dry-run complete, nothing created", logger.KeyCount, opts.Count)
		return summary, nil
	}

	w, err := ledger.BeginWrite(s.cfg.Ledger, ledger.SeedHeader)
	if err != nil {
		return nil, err
	}
	defer func() { _ = w.Close() }()

	for i := 1; i <= opts.Count; i++ {
		username := fixtureUsername(opts.Prefix, i)
		identityName := apiclient.IdentityName(s.cfg.Provider, username)

		result := s.ensureFixture(ctx, username, identityName)
		if result.Status == StatusFailed && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		switch result.Status {
		case StatusCreated:
			summary.Created++
		case StatusAlreadyExisted:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}

		if result.Status != StatusFailed {
			row := ledger.SeedRow{Identity: identityName, User: username, Provider: s.cfg.Provider}
			if err := w.Append(row.Fields()...); err != nil {
				return nil, err
			}
		}
		summary.Results = append(summary.Results, result)

		if i == 1 || i%5 == 0 {
			logger.Info("create progress",
				logger.KeyPhase, "create",
				logger.KeyCount, i,
				"total", opts.Count,
				"created", summary.Created,
				"skipped", summary.Skipped,
				"failed", summary.Failed)
		}
	}

	logger.Info("fixture create complete",
		"created", summary.Created,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"total", opts.Count,
		logger.KeyPath, s.cfg.Ledger)

	return summary, nil
}

// ensureFixture assembles the user, identity, and mapping for one fixture
// username, rolling back partial creations on failure.
func (s *Seeder) ensureFixture(ctx context.Context, username, identityName string) UserResult {
	result := UserResult{Username: username, Identity: identityName}

	created, err := s.createUser(ctx, username)
	if err != nil {
		result.Status = StatusFailed
		result.Reason = err.Error()
		logger.Error("failed to create fixture user",
			logger.KeyUser, username,
			logger.KeyError, err)
		return result
	}
	if !created {
		result.Status = StatusAlreadyExisted
		logger.Info("fixture user already exists, skipping", logger.KeyUser, username)
		return result
	}

	if err := s.createIdentity(ctx, username); err != nil {
		s.rollback(ctx, username, "")
		result.Status = StatusFailed
		result.Reason = err.Error()
		logger.Error("failed to create fixture identity, user rolled back",
			logger.KeyUser, username,
			logger.KeyIdentity, identityName,
			logger.KeyError, err)
		return result
	}

	if err := s.ensureMapping(ctx, identityName, username); err != nil {
		s.rollback(ctx, username, identityName)
		result.Status = StatusFailed
		result.Reason = err.Error()
		logger.Error("failed to link fixture identity, records rolled back",
			logger.KeyUser, username,
			logger.KeyIdentity, identityName,
			logger.KeyError, err)
		return result
	}

	result.Status = StatusCreated
	logger.Info("fixture user created",
		logger.KeyUser, username,
		logger.KeyIdentity, identityName)
	return result
}

// createUser creates the user record. Returns created=false without error
// when the user already exists, either reported as a conflict or verified
// by a lookup after an ambiguous failure.
func (s *Seeder) createUser(ctx context.Context, username string) (bool, error) {
	err := s.retry.Do(ctx, "create user", func(ctx context.Context) error {
		_, createErr := s.client.CreateUser(ctx, &apiclient.CreateUserRequest{Username: username})
		return createErr
	})
	if err == nil {
		return true, nil
	}
	if apiclient.IsConflict(err) {
		return false, nil
	}
	if ctx.Err() == nil {
		if _, getErr := s.client.GetUser(ctx, username); getErr == nil {
			return false, nil
		}
	}
	return false, fmt.Errorf("failed to create user %q: %w", username, err)
}

// createIdentity creates the provider-qualified identity. An identity that
// already exists is fine: the pair may be left over from an earlier run.
func (s *Seeder) createIdentity(ctx context.Context, username string) error {
	err := s.retry.Do(ctx, "create identity", func(ctx context.Context) error {
		_, createErr := s.client.CreateIdentity(ctx, &apiclient.CreateIdentityRequest{
			Provider:         s.cfg.Provider,
			ProviderUsername: username,
		})
		return createErr
	})
	if err == nil || apiclient.IsConflict(err) {
		return nil
	}
	return fmt.Errorf("failed to create identity for %q: %w", username, err)
}

// ensureMapping links the identity to the user unless a mapping is already
// in place.
func (s *Seeder) ensureMapping(ctx context.Context, identityName, username string) error {
	if _, err := s.client.GetMapping(ctx, identityName); err == nil {
		return nil
	}
	err := s.retry.Do(ctx, "create identity mapping", func(ctx context.Context) error {
		_, createErr := s.client.CreateMapping(ctx, identityName, username)
		return createErr
	})
	if err == nil || apiclient.IsConflict(err) {
		return nil
	}
	return fmt.Errorf("failed to link identity %q to user %q: %w", identityName, username, err)
}

// rollback removes partially created fixture records, identity first, so a
// failed user never leaves an orphan behind.
func (s *Seeder) rollback(ctx context.Context, username, identityName string) {
	if identityName != "" {
		err := s.retry.Do(ctx, "rollback identity", func(ctx context.Context) error {
			return s.client.DeleteIdentity(ctx, identityName)
		})
		if err != nil && !apiclient.IsNotFound(err) {
			logger.Warn("rollback failed to delete identity",
				logger.KeyIdentity, identityName,
				logger.KeyError, err)
		}
	}

	err := s.retry.Do(ctx, "rollback user", func(ctx context.Context) error {
		return s.client.DeleteUser(ctx, username)
	})
	if err != nil && !apiclient.IsNotFound(err) {
		logger.Warn("rollback failed to delete user",
			logger.KeyUser, username,
			logger.KeyError, err)
	}
}
