package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultStepDelay, cfg.Sequencer.StepDelay)
	assert.Equal(t, DefaultFinalizeDelay, cfg.Sequencer.FinalizeDelay)
	assert.Equal(t, DefaultRevertStepDelay, cfg.Sequencer.RevertStepDelay)
	assert.Equal(t, DefaultSettleDelay, cfg.Sequencer.SettleDelay)
	assert.Equal(t, DefaultStepTimeout, cfg.Gateway.StepTimeout)
	assert.Equal(t, DefaultQuickLimit, cfg.Profiles.QuickLimit)
	assert.False(t, cfg.Profiles.EnforceFavoriteCap)
	assert.True(t, cfg.Profiles.SeedDefaults)
	assert.Equal(t, DefaultLibraryExclude, cfg.Library.Exclude)
	assert.True(t, cfg.Daemon.AutoStart)
}

func TestLoadFromFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "boost")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
sequencer:
  step_delay: 0s
  finalize_delay: 10ms
gateway:
  step_timeout: 2s
  mock: true
profiles:
  enforce_favorite_cap: true
  quick_limit: 0
library:
  paths:
    - ~/Games
`), 0o644))

	l, err := NewLoader()
	require.NoError(t, err)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.yaml"), l.File())
	assert.Zero(t, cfg.Sequencer.StepDelay)
	assert.Equal(t, 10*time.Millisecond, cfg.Sequencer.FinalizeDelay)
	assert.Equal(t, DefaultSettleDelay, cfg.Sequencer.SettleDelay)
	assert.Equal(t, 2*time.Second, cfg.Gateway.StepTimeout)
	assert.True(t, cfg.Gateway.Mock)
	assert.True(t, cfg.Profiles.EnforceFavoriteCap)
	assert.Equal(t, DefaultQuickLimit, cfg.Profiles.QuickLimit, "non-positive limit falls back")
	assert.Equal(t, []string{filepath.Join(home, "Games")}, cfg.Library.Paths)
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("BOOST_SEQUENCER_STEP_DELAY", "25ms")
	t.Setenv("BOOST_DETECT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, cfg.Sequencer.StepDelay)
	assert.True(t, cfg.Detect.Enabled)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "boost")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("sequencer: [oops"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	home := isolate(t)

	path, err := WriteDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "boost", "config.yaml"), path)

	// second call leaves the file alone
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  mock: true\n"), 0o644))
	_, err = WriteDefault()
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Gateway.Mock)
}

func TestWriteDefaultTemplateParses(t *testing.T) {
	home := isolate(t)
	_, err := WriteDefault()
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultStepDelay, cfg.Sequencer.StepDelay)
	assert.Equal(t, DefaultScanDepth, cfg.Library.Depth)
	assert.DirExists(t, filepath.Join(home, ".config", "boost"))
}

func TestLogConfig(t *testing.T) {
	lc, err := LoggingConfig{
		Level:    "debug",
		Rotation: RotationConfig{MaxSize: "2MB", MaxAge: 3, MaxBackups: 1},
	}.LogConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), lc.Rotation.MaxSize)
	assert.Equal(t, 3, lc.Rotation.MaxAge)
	assert.Equal(t, "debug", lc.Level)

	_, err = LoggingConfig{Rotation: RotationConfig{MaxSize: "lots"}}.LogConfig()
	assert.Error(t, err)
}
