package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/liljencrantz/crush/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFormatDataMissingFileReturnsDefaults(t *testing.T) {
	fd, err := state.LoadFormatData(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, state.DefaultFormatData(), fd)
}

func TestLoadFormatDataOverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "format.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locale: sv_SE\ntemperature_unit: fahrenheit\nfloat_precision: 2\n"), 0o644))

	fd, err := state.LoadFormatData(path)
	require.NoError(t, err)
	assert.Equal(t, "sv_SE", fd.Locale)
	assert.Equal(t, state.Fahrenheit, fd.TemperatureUnit)
	assert.Equal(t, 2, fd.FloatPrecision)
	// unspecified fields keep their defaults
	assert.Equal(t, state.DefaultFormatData().PercentPrecision, fd.PercentPrecision)
}

func TestLoadFormatDataRejectsUnknownTemperatureUnit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "format.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature_unit: kelvin\n"), 0o644))

	_, err := state.LoadFormatData(path)
	assert.Error(t, err)
}

func TestGlobalStateExitStatusAndEditor(t *testing.T) {
	g := state.New(state.DefaultFormatData(), nil)

	_, ok := g.ExitStatus()
	assert.False(t, ok)

	g.RequestExit(7)
	status, ok := g.ExitStatus()
	require.True(t, ok)
	assert.Equal(t, 7, status)

	g.SetEditor("vim-handle")
	assert.Equal(t, "vim-handle", g.Editor())
}

func TestGlobalStatePromptCommandDefaultsToNil(t *testing.T) {
	g := state.New(state.DefaultFormatData(), nil)
	assert.Nil(t, g.PromptCommand())
}
