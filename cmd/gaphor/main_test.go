package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esantoro/gaphor/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gaphor version")
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "- op: create\n  kind: Class\n",
		"run", "--config", filepath.Join(dir, "absent.yaml"),
		"--store", "file", "--dir", dir, "--log-level", "error",
		"--format", "json", "--document", "cli")
	require.NoError(t, err)

	var report cli.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "cli", report.Status.Document)
	assert.Equal(t, 1, report.Status.Elements)
	assert.FileExists(t, filepath.Join(dir, "cli.yaml"))

	out, err = execute(t, "", "graph", "--config", filepath.Join(dir, "absent.yaml"),
		"--store", "file", "--dir", dir, "--document", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "Class")
}

func TestRun_InvalidFlags(t *testing.T) {
	_, err := execute(t, "[]", "run", "--format", "xml", "--store", "none")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "[]", "run", "--store", "floppy", "--format", "json")
	assert.Error(t, err)
}
