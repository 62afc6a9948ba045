package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupScriptTree creates a temporary directory holding files (relative path ->
// content) and returns its absolute path. It fails the test immediately on error.
func SetupScriptTree(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir := t.TempDir()

	// Module resolution joins templates with this path, keep it absolute.
	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for rel, content := range files {
		WriteFile(t, absPath, rel, content)
	}
	return absPath
}

// WriteFile writes content to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// EntryTree sets up a tree with ntb/main.lua holding main and returns the
// package.path template that resolves it.
func EntryTree(t *testing.T, main string) (string, string) {
	t.Helper()

	dir := SetupScriptTree(t, map[string]string{"ntb/main.lua": main})
	return dir, filepath.Join(dir, "?.lua")
}
