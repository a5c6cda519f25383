package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFileName(t *testing.T) {
	tests := map[string]string{
		"Sales Header.xlsx":                "sales_header.xlsx",
		"Customer Account Parameters.XLSX": "customer_account_parameters.xlsx",
		"Products Styles.xlsx":             "products_styles.xlsx",
		"Trans-Types (2024).csv":           "trans_types_2024.csv",
		"Représentatives.xlsx":             "representatives.xlsx",
		"customer.xlsx":                    "customer.xlsx",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeFileName(in), in)
	}
}

func TestRenameDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Sales Header.xlsx", "Customer.xlsx", "customer.xlsx", "notes.txt", "trans_types.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}

	renames, err := RenameDir(dir, false)
	require.NoError(t, err)

	got := map[string]Rename{}
	for _, r := range renames {
		got[r.From] = r
	}
	require.Len(t, got, 2)
	assert.False(t, got["Sales Header.xlsx"].Skipped)
	assert.True(t, got["Customer.xlsx"].Skipped)

	data, err := os.ReadFile(filepath.Join(dir, "sales_header.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "Sales Header.xlsx", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "customer.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "customer.xlsx", string(data), "existing target must not be overwritten")

	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestRenameDir_DryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Payment Lines.xlsx"), nil, 0o644))

	renames, err := RenameDir(dir, true)
	require.NoError(t, err)
	require.Len(t, renames, 1)
	assert.Equal(t, "payment_lines.xlsx", renames[0].To)

	_, err = os.Stat(filepath.Join(dir, "Payment Lines.xlsx"))
	assert.NoError(t, err)
}
