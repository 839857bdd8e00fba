package fixtures

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/config"
	"github.com/platformops/idsweep/internal/fakedir"
	"github.com/platformops/idsweep/internal/ledger"
	"github.com/platformops/idsweep/internal/logger"
	"github.com/platformops/idsweep/internal/retry"
	"github.com/platformops/idsweep/pkg/apiclient"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter(io.Discard, "ERROR", "text", false)
	os.Exit(m.Run())
}

const maxAttempts = 2

func newTestSeeder(t *testing.T, srv *fakedir.Server, cfg *config.Config, confirm prompt.Confirmer) *Seeder {
	t.Helper()

	client := apiclient.New(srv.URL(), apiclient.WithTimeout(5*time.Second))
	exec := &retry.Executor{MaxAttempts: maxAttempts, Delay: time.Millisecond, CallTimeout: 5 * time.Second}
	return New(client, exec, confirm, cfg)
}

func testConfig(t *testing.T, provider string) *config.Config {
	t.Helper()

	return &config.Config{
		Provider: provider,
		Ledger:   filepath.Join(t.TempDir(), "seed-ledger.csv"),
	}
}

func TestCreate_GeneratesPairsAndLedger(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	s := newTestSeeder(t, srv, cfg, &prompt.Scripted{})

	summary, err := s.Create(context.Background(), CreateOptions{Count: 5, Prefix: "qa"})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Created)
	assert.Zero(t, summary.Skipped)
	assert.Zero(t, summary.Failed)
	assert.True(t, summary.Succeeded())

	for _, username := range []string{"qa-001", "qa-002", "qa-003", "qa-004", "qa-005"} {
		name := apiclient.IdentityName("acme_ldap", username)
		assert.True(t, srv.HasUser(username), username)
		assert.True(t, srv.HasIdentity(name), name)
		assert.True(t, srv.HasMapping(name), name)
	}

	rows, err := ledger.ReadSeed(cfg.Ledger)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, ledger.SeedRow{Identity: "acme_ldap:qa-001", User: "qa-001", Provider: "acme_ldap"}, rows[0])
}

func TestCreate_RerunSkipsExistingUsers(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	s := newTestSeeder(t, srv, cfg, &prompt.Scripted{})

	_, err := s.Create(context.Background(), CreateOptions{Count: 3, Prefix: "qa"})
	require.NoError(t, err)

	summary, err := s.Create(context.Background(), CreateOptions{Count: 3, Prefix: "qa"})
	require.NoError(t, err)

	assert.Zero(t, summary.Created)
	assert.Equal(t, 3, summary.Skipped)
	assert.True(t, summary.Succeeded(), "re-found fixtures are usable fixtures")

	// Skipped pairs are still recorded so a later cleanup finds them
	rows, err := ledger.ReadSeed(cfg.Ledger)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCreate_RollbackOnIdentityFailure(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	s := newTestSeeder(t, srv, cfg, &prompt.Scripted{})

	// The first fixture's identity create fails on every attempt; the
	// second fixture proceeds normally.
	srv.FailNext(http.MethodPost, "/api/v1/identities", maxAttempts, http.StatusInternalServerError)

	summary, err := s.Create(context.Background(), CreateOptions{Count: 2, Prefix: "qa"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Created)

	assert.False(t, srv.HasUser("qa-001"), "the half-created user must be rolled back")
	assert.False(t, srv.HasIdentity("acme_ldap:qa-001"))
	assert.True(t, srv.HasUser("qa-002"))
	assert.True(t, srv.HasIdentity("acme_ldap:qa-002"))

	rows, readErr := ledger.ReadSeed(cfg.Ledger)
	require.NoError(t, readErr)
	require.Len(t, rows, 1, "failed fixtures must not be recorded")
	assert.Equal(t, "qa-002", rows[0].User)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, StatusFailed, summary.Results[0].Status)
	assert.NotEmpty(t, summary.Results[0].Reason)
	assert.Equal(t, StatusCreated, summary.Results[1].Status)
}

func TestCreate_RollbackOnMappingFailure(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	s := newTestSeeder(t, srv, cfg, &prompt.Scripted{})

	srv.FailNext(http.MethodPost, "/api/v1/identity-mappings", maxAttempts, http.StatusInternalServerError)

	summary, err := s.Create(context.Background(), CreateOptions{Count: 1, Prefix: "qa"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Succeeded())
	assert.False(t, srv.HasUser("qa-001"), "both records must be rolled back")
	assert.False(t, srv.HasIdentity("acme_ldap:qa-001"))
}

func TestCreate_DryRunTouchesNothing(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	cfg.DryRun = true
	s := newTestSeeder(t, srv, cfg, &prompt.Scripted{})

	summary, err := s.Create(context.Background(), CreateOptions{Count: 5, Prefix: "qa"})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Requested)
	assert.Zero(t, summary.Created)
	assert.Zero(t, srv.TotalRequests())

	_, statErr := os.Stat(cfg.Ledger)
	assert.True(t, os.IsNotExist(statErr), "dry-run must not write a seed ledger")
}

func TestCreate_ValidatesOptions(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	s := newTestSeeder(t, srv, cfg, &prompt.Scripted{})

	_, err := s.Create(context.Background(), CreateOptions{Count: 0, Prefix: "qa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 1")

	_, err = s.Create(context.Background(), CreateOptions{Count: 3, Prefix: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prefix")

	assert.Zero(t, srv.TotalRequests())
}
