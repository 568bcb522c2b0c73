package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCommand_Defaults(t *testing.T) {
	out, err := runRoot(t, "config", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	var tree map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &tree))
	assert.Equal(t, 3064301, tree["feed"]["channel_id"])
	assert.Equal(t, "15s", tree["poll"]["interval"])
}

func TestConfigCommand_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  channel_id: 42\n  api_key: ${TEST_FEED_KEY}\n"), 0o600))
	t.Setenv("TEST_FEED_KEY", "secret")
	t.Setenv("RENUGRID_POLL_INTERVAL", "30s")

	out, err := runRoot(t, "config", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "channel_id: 42")
	assert.Contains(t, out, "api_key: secret")
	assert.Contains(t, out, "interval: 30s")
}

func TestConfigCommand_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  results: 9000\n"), 0o600))

	_, err := runRoot(t, "config", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"dashboard", "serve", "config"})
}
