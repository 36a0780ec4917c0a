package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingOptional(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName), true)
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
root: www/assets
exclude:
  - "*.psd"
  - raw/
slash: true
serve:
  addr: ":9000"
watch:
  debounce: 1s
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "www/assets", cfg.Root)
	assert.Equal(t, []string{"*.psd", "raw/"}, cfg.Exclude)
	assert.True(t, cfg.Slash)
	assert.False(t, cfg.Indent)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.Equal(t, "/assets/", cfg.Serve.Prefix)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, Default().Skip, cfg.Skip)
}

func TestLoadClearsSkip(t *testing.T) {
	cfg, err := Load(writeConfig(t, "skip: []\n"), true)
	require.NoError(t, err)
	assert.Empty(t, cfg.Skip)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "roots: assets\n"), true)
	assert.Error(t, err)
}

func TestLoadRejectsBadPattern(t *testing.T) {
	_, err := Load(writeConfig(t, "exclude: ['[abc']\n"), true)
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "game")
	cfg := Default()

	assert.Equal(t, filepath.Join(dir, "assets"), cfg.RootPath(dir))
	assert.Equal(t,
		filepath.Join(dir, "assets", "index.json"),
		cfg.OutputPath(dir),
	)

	cfg.Output = "dist/index.json"
	assert.Equal(t,
		filepath.Join(dir, "dist", "index.json"),
		cfg.OutputPath(dir),
	)

	abs := filepath.Join(string(filepath.Separator), "srv", "assets")
	cfg.Root = abs
	assert.Equal(t, abs, cfg.RootPath(dir))
}

func TestIndexOptions(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "game")
	cfg := Default()
	cfg.Exclude = []string{"*.psd"}

	opts := cfg.IndexOptions(dir)
	assert.Equal(t, cfg.Skip, opts.Skip)
	assert.Equal(t, []string{"*.psd"}, opts.Excludes)
	assert.Equal(t,
		[]string{filepath.Join(dir, "assets", "index.json")},
		opts.Ignore,
	)
}
