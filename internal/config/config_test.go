package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysValuesOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	toml := `
[general]
prefix_key = "ctrl-a"

[appearance]
theme = "solarized"
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "ctrl-a", cfg.General.PrefixKey)
	assert.Equal(t, "solarized", cfg.Appearance.Theme)
	// Untouched sections keep their documented defaults.
	assert.Equal(t, 50, cfg.General.MaxDepth)
	assert.Equal(t, "bottom", cfg.Appearance.StatusPosition)
}

func TestLoadUnknownKeyWarnsAndFallsBackLeniently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	toml := `
[general]
prefix_key = "ctrl-a"
nonexistent_future_key = "x"
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	cfg, err := Load(path, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "ctrl-a", cfg.General.PrefixKey)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}
