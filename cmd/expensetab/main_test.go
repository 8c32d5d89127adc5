package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetab/internal/core"
)

// run executes the CLI against the file backend in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	base := []string{
		"--env-file", filepath.Join(dir, "none.env"),
		"--backend", "file",
		"--state-file", filepath.Join(dir, "state.json"),
	}
	rootCmd.SetArgs(append(base, args...))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLIWorkflow(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	dir := t.TempDir()

	csv := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csv, []byte(
		"date,description,amount,category\n"+
			"01/15/2024,Coffee,3.50,Food\n"+
			"01/15/2024,Coffee,3.50,Food\n"+
			"01/20/2024,Train,12.00,Transport\n"), 0o644))

	out, err := run(t, dir, "import", csv)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Successfully imported 3 expenses")

	out, err = run(t, dir, "budget", "set", "2024-01", "10")
	require.NoError(t, err, out)

	out, err = run(t, dir, "report", "--month", "2024-01")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Total: 19.00")
	assert.Contains(t, out, "Over budget by 9.00")

	out, err = run(t, dir, "duplicates", "--month", "2024-01")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Group 1")

	exported := filepath.Join(dir, "out.csv")
	out, err = run(t, dir, "export", "-o", exported)
	require.NoError(t, err, out)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), "01/20/2024\tTrain\t12.00\tTransport")
}

func TestCLIImportRejected(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("date,description,amount,category\n01/15/2024,Coffee,abc,Food\n"), 0o644))

	out, err := run(t, dir, "import", bad)
	assert.ErrorIs(t, err, errImportRejected)
	assert.Contains(t, out, "Validation errors")

	out, err = run(t, dir, "expenses", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No expenses found")
}

func TestCLICategories(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "categories", "add", "Pets")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added category Pets")

	_, err = run(t, dir, "categories", "add", "pets")
	assert.Error(t, err)

	out, err = run(t, dir, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Pets")
	assert.Contains(t, out, "Shopping")
}

func TestResolveCategory(t *testing.T) {
	cats := core.DefaultCategories()
	id, err := resolveCategory(cats, "FOOD")
	require.NoError(t, err)
	assert.Equal(t, "4", id)

	id, err = resolveCategory(cats, "2")
	require.NoError(t, err)
	assert.Equal(t, "2", id)

	_, err = resolveCategory(cats, "Pets")
	assert.Error(t, err)
}
