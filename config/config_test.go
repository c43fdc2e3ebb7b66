package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/interpret"
	"github.com/fwojciec/interpret/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "")

	cfg, err := config.Load(path, nil)

	require.NoError(t, err)
	assert.Equal(t, config.NewDefaultConfig(), cfg)
	assert.True(t, cfg.Interpret.Enabled)
	assert.Equal(t, interpret.DefaultYAMLPath, cfg.Interpret.YAMLPath)
	assert.Equal(t, interpret.DefaultIssuesPath, cfg.Interpret.IssuesPath)
	assert.Equal(t, 5, cfg.Kube.IssueLimit)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := writeFile(t, `
[server]
base_url = "https://dash.example.com"
token = "abc"

[interpret]
enabled = false
language = "pl"

[replay]
delay = "10ms"
chunk_size = 8
`)

	cfg, err := config.Load(path, nil)

	require.NoError(t, err)
	assert.Equal(t, "https://dash.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "abc", cfg.Server.Token)
	assert.False(t, cfg.Interpret.Enabled)
	assert.Equal(t, "pl", cfg.Interpret.Language)
	assert.Equal(t, interpret.DefaultYAMLPath, cfg.Interpret.YAMLPath)
	d, err := cfg.Replay.DelayDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, d)
	assert.Equal(t, 8, cfg.Replay.ChunkSize)
}

func TestLoad_Precedence(t *testing.T) {
	// t.Setenv forbids t.Parallel.
	path := writeFile(t, `
[server]
base_url = "http://from-file:1"

[interpret]
language = "de"
`)
	t.Setenv("KUBEINTERP_SERVER_BASE_URL", "http://from-env:2")
	t.Setenv("KUBEINTERP_INTERPRET_LANGUAGE", "fr")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.AddFlag(fs, config.FlagServer)
	config.AddFlag(fs, config.FlagLanguage)
	config.AddFlag(fs, config.FlagLimit)
	require.NoError(t, fs.Parse([]string{"--server", "http://from-flag:3", "--limit", "3"}))

	cfg, err := config.Load(path, fs)

	require.NoError(t, err)
	assert.Equal(t, "http://from-flag:3", cfg.Server.BaseURL)
	assert.Equal(t, "fr", cfg.Interpret.Language)
	assert.Equal(t, 3, cfg.Kube.IssueLimit)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"), nil)

	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"relative base url", "[server]\nbase_url = \"dash\"\n"},
		{"empty language", "[interpret]\nlanguage = \" \"\n"},
		{"path without slash", "[interpret]\nyaml_path = \"api/yaml\"\n"},
		{"zero limit", "[kube]\nissue_limit = 0\n"},
		{"bad delay", "[replay]\ndelay = \"soon\"\n"},
		{"negative chunk size", "[replay]\nchunk_size = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Load(writeFile(t, tt.body), nil)
			require.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestAddFlag_Defaults(t *testing.T) {
	t.Parallel()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)

	config.AddFlag(fs, config.FlagServer)
	config.AddFlag(fs, config.FlagEnabled)
	config.AddFlag(fs, config.FlagLimit)
	config.AddFlag(fs, config.FlagNamespace)

	assert.Equal(t, "http://localhost:8080", fs.Lookup("server").DefValue)
	assert.Equal(t, "bool", fs.Lookup("enabled").Value.Type())
	assert.Equal(t, "5", fs.Lookup("limit").DefValue)
	assert.Equal(t, "n", fs.Lookup("namespace").Shorthand)
	assert.Panics(t, func() { config.AddFlag(fs, "no-such-flag") })
}

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("round trips through Load", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		cfg := config.NewDefaultConfig()
		cfg.Server.Token = "secret"
		cfg.Kube.Namespace = "prod"

		require.NoError(t, config.Write(path, cfg, false))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		loaded, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "# mine\n")

		err := config.Write(path, config.NewDefaultConfig(), false)

		require.Error(t, err)
		data, _ := os.ReadFile(path)
		assert.Equal(t, "# mine\n", string(data))
		require.NoError(t, config.Write(path, config.NewDefaultConfig(), true))
	})
}
