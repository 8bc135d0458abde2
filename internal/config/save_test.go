package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, yaml.Unmarshal(data, &out))
	return out
}

func TestSetValue_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SetValue(path, "output.format", "json"))

	got := readYAML(t, path)
	require.Equal(t, map[string]any{"output": map[string]any{"format": "json"}}, got)
}

func TestSetValue_PreservesOtherConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SetValue(path, "output.color", "false"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Debug logging")

	got := readYAML(t, path)
	output := got["output"].(map[string]any)
	require.Equal(t, false, output["color"])
	require.Equal(t, "text", output["format"])
	require.Equal(t, "walkabout.log", got["log"].(map[string]any)["path"])
}

func TestSetValue_List(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SetValue(path, "sorter.after", "[FIRST, a]"))

	got := readYAML(t, path)
	require.Equal(t, []any{"FIRST", "a"}, got["sorter"].(map[string]any)["after"])
}

func TestSetValue_TopLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SetValue(path, "manifest", "routes.yaml"))
	require.NoError(t, SetValue(path, "manifest", "other.yaml"))

	require.Equal(t, map[string]any{"manifest": "other.yaml"}, readYAML(t, path))
}

func TestSetValue_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.ErrorContains(t, SetValue(path, "", "x"), "key is required")
	require.ErrorContains(t, SetValue(path, "output..format", "x"), "invalid key")

	require.NoError(t, SetValue(path, "manifest", "routes.yaml"))
	require.ErrorContains(t, SetValue(path, "manifest.path", "x"), "manifest is not a section")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- a\n- b\n"), 0o600))
	require.ErrorContains(t, SetValue(bad, "a", "b"), "not a mapping")
}

func TestSetValue_AtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, SetValue(path, "log.debug", "true"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file should be renamed away")
	require.Equal(t, "config.yaml", entries[0].Name())
}
