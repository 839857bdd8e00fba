package reconcile

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/fakedir"
	"github.com/platformops/idsweep/internal/ledger"
)

func writeLedger(t *testing.T, path string, rows ...ledger.ReconcileRow) {
	t.Helper()

	w, err := ledger.BeginWrite(path, ledger.ReconcileHeader)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.Append(row.Fields()...))
	}
	require.NoError(t, w.Close())
}

// Full scan-then-delete pass: three identities under the provider, one
// protected by the exclusion list. The two unprotected pairs are deleted,
// the protected one survives, and the consumed ledger is removed.
func TestDelete_ScanThenDelete(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()
	srv.Seed("acme_ldap", "alice", "bob", "carol")

	cfg := testConfig(t, "acme_ldap")
	confirm := &prompt.Scripted{Answer: true}
	r := newTestReconciler(t, srv, cfg, confirm)

	scan, err := r.Scan(context.Background(), loadSet(t, "alice"))
	require.NoError(t, err)
	require.Equal(t, 2, scan.Actionable)

	summary, err := r.Delete(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.True(t, summary.LedgerRemoved)

	require.Len(t, confirm.Labels, 1)
	assert.Contains(t, confirm.Labels[0], "2")

	assert.True(t, srv.HasUser("alice"), "excluded user must survive")
	assert.True(t, srv.HasIdentity("acme_ldap:alice"))
	assert.False(t, srv.HasUser("bob"))
	assert.False(t, srv.HasIdentity("acme_ldap:bob"))
	assert.False(t, srv.HasUser("carol"))
	assert.False(t, srv.HasIdentity("acme_ldap:carol"))

	assert.Zero(t, srv.Requests(http.MethodDelete, "/api/v1/users/alice"),
		"excluded rows must cause no remote delete calls")
	assert.Zero(t, srv.Requests(http.MethodDelete, "/api/v1/identities/acme_ldap:alice"))

	_, err = os.Stat(cfg.Ledger)
	assert.True(t, os.IsNotExist(err), "consumed ledger must be removed")
}

func TestDelete_MissingLedgerIsFatal(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	r := newTestReconciler(t, srv, cfg, &prompt.Scripted{Answer: true})

	_, err := r.Delete(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrMissing)
	assert.Zero(t, srv.TotalRequests())
}

func TestDelete_EmptyLedgerIsTrivialSuccess(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	writeLedger(t, cfg.Ledger)

	confirm := &prompt.Scripted{Answer: false}
	r := newTestReconciler(t, srv, cfg, confirm)

	summary, err := r.Delete(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Empty(t, confirm.Labels, "nothing to delete, nothing to confirm")
	assert.Zero(t, srv.TotalRequests())
}

func TestDelete_AllExcludedMakesNoRemoteCalls(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	cfg := testConfig(t, "acme_ldap")
	writeLedger(t, cfg.Ledger,
		ledger.ReconcileRow{Identity: "acme_ldap:alice", User: "alice", Excluded: true},
		ledger.ReconcileRow{Identity: "acme_ldap:bob", User: "bob", Excluded: true},
	)

	confirm := &prompt.Scripted{Answer: false}
	r := newTestReconciler(t, srv, cfg, confirm)

	summary, err := r.Delete(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Skipped)
	assert.Zero(t, summary.Succeeded)
	assert.Zero(t, srv.TotalRequests())
	assert.Empty(t, confirm.Labels, "no actionable rows means no prompt")
	assert.True(t, summary.LedgerRemoved, "a fully skipped pass has zero failures")
}

func TestDelete_AlreadyAbsentTargetsAreSuccess(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()

	// Neither the user nor the identity exists; both deletes see 404.
	cfg := testConfig(t, "acme_ldap")
	writeLedger(t, cfg.Ledger,
		ledger.ReconcileRow{Identity: "acme_ldap:gone", User: "gone", Excluded: false},
	)

	r := newTestReconciler(t, srv, cfg, &prompt.Scripted{Answer: true})

	summary, err := r.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.True(t, summary.LedgerRemoved)
}

func TestDelete_RecheckTreatsGoneTargetAsDeleted(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()
	srv.SeedUnlinked("acme_ldap", "phantom")

	cfg := testConfig(t, "acme_ldap")
	writeLedger(t, cfg.Ledger,
		ledger.ReconcileRow{Identity: "acme_ldap:phantom", User: "phantom", Excluded: false},
	)

	// The user delete fails with a retryable status on every attempt, but
	// the follow-up lookup proves the user is not there at all.
	srv.FailNext(http.MethodDelete, "/api/v1/users/phantom", maxAttempts, http.StatusInternalServerError)

	r := newTestReconciler(t, srv, cfg, &prompt.Scripted{Answer: true})

	summary, err := r.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 1, srv.Requests(http.MethodGet, "/api/v1/users/phantom"),
		"verification lookup runs once after the delete gives up")
	assert.False(t, srv.HasIdentity("acme_ldap:phantom"))
}

func TestDelete_FailedRowRetainsLedgerAndStillDeletesIdentity(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()
	srv.Seed("acme_ldap", "bob")

	cfg := testConfig(t, "acme_ldap")
	writeLedger(t, cfg.Ledger,
		ledger.ReconcileRow{Identity: "acme_ldap:bob", User: "bob", Excluded: false},
	)

	// Every user delete attempt fails and the user verifiably still exists.
	srv.FailNext(http.MethodDelete, "/api/v1/users/bob", maxAttempts, http.StatusInternalServerError)

	r := newTestReconciler(t, srv, cfg, &prompt.Scripted{Answer: true})

	summary, err := r.Delete(context.Background())
	require.NoError(t, err, "row failures are counted, not returned")

	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Succeeded)
	assert.False(t, summary.LedgerRemoved)

	assert.True(t, srv.HasUser("bob"))
	assert.False(t, srv.HasIdentity("acme_ldap:bob"),
		"the identity delete is attempted even when the user delete fails")

	rows, readErr := ledger.ReadReconcile(cfg.Ledger)
	require.NoError(t, readErr, "ledger must survive as the retry worklist")
	assert.Len(t, rows, 1)
}

func TestDelete_DeclinedConfirmationCancels(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()
	srv.Seed("acme_ldap", "bob")

	cfg := testConfig(t, "acme_ldap")
	writeLedger(t, cfg.Ledger,
		ledger.ReconcileRow{Identity: "acme_ldap:bob", User: "bob", Excluded: false},
	)

	r := newTestReconciler(t, srv, cfg, &prompt.Scripted{Answer: false})

	_, err := r.Delete(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrCancelled)

	assert.Zero(t, srv.TotalRequests(), "declining must leave the directory untouched")
	_, statErr := os.Stat(cfg.Ledger)
	assert.NoError(t, statErr, "declining must leave the ledger in place")
}

func TestDelete_AutoConfirmSkipsPrompt(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()
	srv.Seed("acme_ldap", "bob")

	cfg := testConfig(t, "acme_ldap")
	cfg.AutoConfirm = true
	writeLedger(t, cfg.Ledger,
		ledger.ReconcileRow{Identity: "acme_ldap:bob", User: "bob", Excluded: false},
	)

	confirm := &prompt.Scripted{Answer: false}
	r := newTestReconciler(t, srv, cfg, confirm)

	summary, err := r.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, confirm.Labels)
}

func TestDelete_DryRunMakesNoRemoteCalls(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()
	srv.Seed("acme_ldap", "alice", "bob")

	cfg := testConfig(t, "acme_ldap")
	cfg.DryRun = true
	writeLedger(t, cfg.Ledger,
		ledger.ReconcileRow{Identity: "acme_ldap:alice", User: "alice", Excluded: true},
		ledger.ReconcileRow{Identity: "acme_ldap:bob", User: "bob", Excluded: false},
	)

	confirm := &prompt.Scripted{Answer: false}
	r := newTestReconciler(t, srv, cfg, confirm)

	summary, err := r.Delete(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Succeeded)
	assert.Zero(t, srv.TotalRequests())
	assert.Empty(t, confirm.Labels, "dry-run never prompts")

	assert.True(t, srv.HasUser("bob"))
	_, statErr := os.Stat(cfg.Ledger)
	assert.NoError(t, statErr)
}

func TestDelete_UnlinkedRowDeletesIdentityOnly(t *testing.T) {
	srv := fakedir.New()
	defer srv.Close()
	srv.SeedUnlinked("acme_ldap", "ghost")

	cfg := testConfig(t, "acme_ldap")
	writeLedger(t, cfg.Ledger,
		ledger.ReconcileRow{Identity: "acme_ldap:ghost", User: "", Excluded: false},
	)

	r := newTestReconciler(t, srv, cfg, &prompt.Scripted{Answer: true})

	summary, err := r.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.False(t, srv.HasIdentity("acme_ldap:ghost"))
	assert.Equal(t, 1, srv.TotalRequests(),
		"a row without a user must issue exactly one identity delete")
}
