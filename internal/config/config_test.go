package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)
	v, err := New("", nil)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, filepath.Join(home, ".tasktree", "tasks.json"), cfg.File)
}

func TestLoad_FileEnvFlagPrecedence(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "tasktree", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
file: /from/file.json
format: yaml
sync:
  auto_push: false
  timeout: 5s
log:
  level: debug
`), 0o644))

	t.Setenv("TASKTREE_FORMAT", "edn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("file", "", "")
	flags.String("format", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--file", "/from/flag.json"}))

	v, err := New("", flags)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/from/flag.json", cfg.File)
	assert.Equal(t, "edn", cfg.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Sync.AutoPush)
	assert.True(t, cfg.Sync.AutoCommit)
	assert.Equal(t, 5*time.Second, cfg.Sync.Timeout)
}

func TestLogFormatFlag(t *testing.T) {
	isolate(t)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-format", "", "")
	require.NoError(t, flags.Parse([]string{"--log-format", "json"}))

	v, err := New("", flags)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestNew_ExplicitMissingConfigFails(t *testing.T) {
	isolate(t)
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestNoSyncFlag(t *testing.T) {
	isolate(t)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("no-sync", false, "")
	require.NoError(t, flags.Parse([]string{"--no-sync"}))

	v, err := New("", flags)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.False(t, cfg.Sync.Enabled)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Format = "xml"
	cfg.Log.Format = "pretty"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := isolate(t)
	t.Setenv("TASKTREE_FILE", "~/notes/tasks.json")
	v, err := New("", nil)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "notes", "tasks.json"), cfg.File)
}
