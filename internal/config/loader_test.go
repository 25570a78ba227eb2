package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	return NewLoader()
}

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stampo.yaml")
	content := `
output:
  format: webp
  quality: 70
  max_width: 1280
watermark:
  opacity: 0.5
  position: center
batch:
  workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := newTestLoader(t).LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "webp", cfg.Output.Format)
	assert.Equal(t, 70, cfg.Output.Quality)
	assert.Equal(t, 1280, cfg.Output.MaxWidth)
	assert.InDelta(t, 0.5, cfg.Watermark.Opacity, 0.001)
	assert.Equal(t, "center", cfg.Watermark.Position)
	assert.Equal(t, 4, cfg.Batch.Workers)

	// Unset keys fall back to defaults.
	assert.Equal(t, 1080, cfg.Output.MaxHeight)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadWithFileMissing(t *testing.T) {
	_, err := newTestLoader(t).LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stampo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: bmp\n"), 0o600))

	_, err := newTestLoader(t).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadWithFileEmptyFallsBackToSearch(t *testing.T) {
	// An empty path searches default locations; a missing file there is fine
	// and defaults apply.
	cfg, err := newTestLoader(t).LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", cfg.Output.Format)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("STAMPO_OUTPUT_QUALITY", "42")

	cfg, err := newTestLoader(t).Load()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Output.Quality)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stampo.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := newTestLoader(t).LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", cfg.Output.Format)
	assert.Equal(t, 85, cfg.Output.Quality)
}
