package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Identity", "User", "Excluded")

	assert.Equal(t, []string{"Identity", "User", "Excluded"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("ldap-corp:alice", "alice", "false")
	table.AddRow("ldap-corp:svc-backup", "svc-backup", "true")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ldap-corp:alice", "alice", "false"}, rows[0])
	assert.Equal(t, []string{"ldap-corp:svc-backup", "svc-backup", "true"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Identity", "User")
	table.AddRow("ldap-corp:alice", "alice")
	table.AddRow("ldap-corp:bob", "bob")

	var buf bytes.Buffer
	err := PrintTable(&buf, table)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "IDENTITY")
	assert.Contains(t, output, "USER")
	assert.Contains(t, output, "ldap-corp:alice")
	assert.Contains(t, output, "alice")
	assert.Contains(t, output, "ldap-corp:bob")
	assert.Contains(t, output, "bob")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"Provider", "ldap-corp"},
		{"Ledger", "idsweep-ledger.csv"},
	}

	var buf bytes.Buffer
	err := SimpleTable(&buf, pairs)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Provider")
	assert.Contains(t, output, "ldap-corp")
	assert.Contains(t, output, "Ledger")
	assert.Contains(t, output, "idsweep-ledger.csv")
}
