package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 40, cfg.Pager.Slots)
	require.Equal(t, "bpt.dat", cfg.Pager.DataFile)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pager:
  slots: 8
  data_file: custom.dat
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Pager.Slots)
	require.Equal(t, "custom.dat", cfg.Pager.DataFile)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_RejectsInvalidSlots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pager:\n  slots: 5\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, -4, int(ParseLevel("debug")))
	require.Equal(t, 0, int(ParseLevel("info")))
}
