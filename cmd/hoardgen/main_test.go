package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configData = "../../configs/data"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGemCommand(t *testing.T) {
	out, _, err := execute(t, "gem", "--data", configData, "--seed", "42", "-n", "3")
	require.NoError(t, err)
	got := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, got, 3)
	for _, l := range got {
		assert.True(t, strings.HasPrefix(l, "This is a "), l)
	}

	again, _, err := execute(t, "gem", "--data", configData, "--seed", "42", "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestGemCommand_DefaultCountFromConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "hoardgen.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("data_dir: "+configData+"\ngem:\n  count: 2\n"), 0o644))

	out, _, err := execute(t, "gem", "--config", cfg, "--seed", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestWineCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "wine", "--data", configData, "--seed", "9", "--format", "json", "-n", "2")
	require.NoError(t, err)
	got := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, got, 2)
	for _, l := range got {
		assert.Contains(t, l, `"type":"WINE"`)
	}
}

func TestEnvOverridesAndFlagsWin(t *testing.T) {
	t.Setenv("HOARDGEN_DATA_DIR", t.TempDir())
	_, _, err := execute(t, "gem", "--seed", "1", "-n", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gem_types.csv")

	_, _, err = execute(t, "gem", "--data", configData, "--seed", "1", "-n", "1")
	require.NoError(t, err)
}

func TestIndexCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "index.db")
	out, _, err := execute(t, "index", "--data", configData, "--index", db)
	require.NoError(t, err)
	assert.Contains(t, out, "gem_types.csv")
	assert.Contains(t, out, "wine_notes.csv")
	assert.NotContains(t, out, "recent runs")

	_, _, err = execute(t, "gem", "--data", configData, "--index", db, "--seed", "8", "-n", "2")
	require.NoError(t, err)
	out, _, err = execute(t, "index", "--data", configData, "--index", db)
	require.NoError(t, err)
	assert.Contains(t, out, "recent runs:")
	assert.Contains(t, out, "gem  2/2  seed=8  ok")

	_, _, err = execute(t, "index", "--data", configData)
	assert.Error(t, err)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "gem", "--data", configData, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestDebugLogging(t *testing.T) {
	_, logs, err := execute(t, "wine", "--data", configData, "--seed", "2", "-n", "1", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, logs, "created pool")
	assert.Contains(t, logs, "run done")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
