package exclusions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keep.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_EmptyPathProtectsNothing(t *testing.T) {
	set, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Source())
	assert.False(t, set.IsExcluded("anyone"))
}

func TestLoad_MissingConfiguredFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclusion list")
}

func TestLoad_ParsesLines(t *testing.T) {
	path := writeList(t, `
# protected service accounts
svc-backup
  svc-monitor

alice
`)

	set, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, path, set.Source())
	assert.True(t, set.IsExcluded("svc-backup"))
	assert.True(t, set.IsExcluded("svc-monitor"), "surrounding whitespace is trimmed")
	assert.True(t, set.IsExcluded("alice"))
	assert.False(t, set.IsExcluded("bob"))
}

func TestIsExcluded_ExactMatch(t *testing.T) {
	set, err := Load(writeList(t, "Alice\n"))
	require.NoError(t, err)

	assert.True(t, set.IsExcluded("Alice"))
	assert.False(t, set.IsExcluded("alice"), "matching is case-sensitive")
	assert.False(t, set.IsExcluded("Alice2"), "matching is not a prefix check")
}

func TestLoad_CommentsAndBlanksIgnored(t *testing.T) {
	set, err := Load(writeList(t, "# only comments\n\n   \n# and blanks\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, set.Len())
}
