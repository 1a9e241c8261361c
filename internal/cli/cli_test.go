package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeConfig creates a template root with files and a config file pointing
// at it, excluding bundled and core templates.
func writeConfig(t *testing.T, files map[string]string, extra string) (cfgPath, root string) {
	t.Helper()
	dir := t.TempDir()
	root = filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(root, 0755))
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	cfgPath = filepath.Join(dir, "config.yaml")
	content := "template_dirs:\n  - " + root + "\ninclude_default: false\ninclude_core_paths: false\nlogging:\n  level: error\n" + extra
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath, root
}

func TestListJSON(t *testing.T) {
	cfgPath, _ := writeConfig(t, map[string]string{
		"b.ipynb":                    "{}",
		"a.ipynb":                    "{}",
		".ipynb_checkpoints/a.ipynb": "{}",
	}, "")

	out, err := execute(t, "list", "--config", cfgPath, "--json=true", "--non-interactive")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	require.Equal(t, []string{"a.ipynb", "b.ipynb"}, names)
}

func TestListTable(t *testing.T) {
	cfgPath, root := writeConfig(t, map[string]string{"sub/x.ipynb": "{}"}, "")

	out, err := execute(t, "list", "--config", cfgPath, "--json=false", "--non-interactive")
	require.NoError(t, err)
	require.Contains(t, out, "TEMPLATE")
	require.Contains(t, out, "sub/x.ipynb")
	require.Contains(t, out, filepath.Join(root, "sub", "x.ipynb"))
}

func TestListEmpty(t *testing.T) {
	cfgPath, _ := writeConfig(t, nil, "")

	out, err := execute(t, "list", "--config", cfgPath, "--json=false", "--non-interactive")
	require.NoError(t, err)
	require.Contains(t, out, "No templates found")
}

func TestShowRendersForUser(t *testing.T) {
	cfgPath, _ := writeConfig(t, map[string]string{"intro.ipynb": "Hello ##username##"}, "")

	out, err := execute(t, "show", "intro.ipynb", "--user", "alice", "--config", cfgPath, "--json=false")
	require.NoError(t, err)
	require.Equal(t, "Hello alice", out)
}

func TestShowNotFound(t *testing.T) {
	cfgPath, _ := writeConfig(t, nil, "")

	_, err := execute(t, "show", "missing.ipynb", "--user", "alice", "--config", cfgPath, "--json=false")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestPathsJSON(t *testing.T) {
	cfgPath, root := writeConfig(t, nil, "")

	out, err := execute(t, "paths", "--config", cfgPath, "--json=true")
	require.NoError(t, err)

	var paths []string
	require.NoError(t, json.Unmarshal([]byte(out), &paths))
	require.Equal(t, []string{root}, paths)
}

func TestConfigRedactsSecret(t *testing.T) {
	cfgPath, _ := writeConfig(t, nil, "auth:\n  jwt_secret: hunter2\n")

	out, err := execute(t, "config", "--config", cfgPath, "--json=false")
	require.NoError(t, err)
	require.NotContains(t, out, "hunter2")
	require.Contains(t, out, redacted)
	require.True(t, strings.Contains(out, "template_dirs:"), out)
}

func TestInvalidConfigFails(t *testing.T) {
	cfgPath, _ := writeConfig(t, nil, "server:\n  port: 99999\n")

	_, err := execute(t, "paths", "--config", cfgPath, "--json=true")
	require.Error(t, err)
}

func TestWriteTableAligns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"A", "B"}, [][]string{{"long-value", "x"}}, false))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, strings.Index(lines[1], "x"), strings.Index(lines[0], "B"))
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "500µs", formatDuration(500*time.Microsecond))
	require.Equal(t, "120ms", formatDuration(123*time.Millisecond))
	require.Equal(t, "1.5s", formatDuration(1480*time.Millisecond))
}

func TestProgressDisabledForJSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()
	require.Nil(t, startProgress("x"))

	var step *progressStep
	step.Done()
	step.Fail(nil)
}
