package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edt3d/pkg/edt"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	kind, err := cfg.OutputKind()
	require.NoError(t, err)
	assert.Equal(t, edt.FloatingPoint, kind)

	// Slice loading falls back to its own extension list
	assert.Empty(t, cfg.Input.Extensions)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edt3d.yaml")
	data := []byte(`
transform:
  outputKind: short
  workers: 3
input:
  threshold: 0.25
  invert: true
  smooth: 1.5
  extensions: [.tif]
output:
  sliceAxes: [x, y]
  format: tif
verify:
  enabled: true
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	kind, err := cfg.OutputKind()
	require.NoError(t, err)
	assert.Equal(t, edt.ScaledFixedPoint, kind)
	assert.Equal(t, 3, cfg.Transform.Workers)
	assert.Equal(t, 0.25, cfg.Input.Threshold)
	assert.True(t, cfg.Input.Invert)
	assert.Equal(t, 1.5, cfg.Input.Smooth)
	assert.Equal(t, []string{".tif"}, cfg.Input.Extensions)
	assert.Equal(t, []string{"x", "y"}, cfg.Output.SliceAxes)
	assert.Equal(t, "tif", cfg.Output.Format)
	assert.True(t, cfg.Verify.Enabled)

	// Untouched keys keep their defaults
	assert.Equal(t, 0.05, cfg.Verify.Tolerance)
	assert.True(t, cfg.Output.SaveRaw)
}

func TestLoadConfigInvalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"bad kind", "transform:\n  outputKind: double\n"},
		{"bad threshold", "input:\n  threshold: 2\n"},
		{"bad smooth", "input:\n  smooth: -1\n"},
		{"bad axis", "output:\n  sliceAxes: [w]\n"},
		{"bad format", "output:\n  format: gif\n"},
		{"bad tolerance", "verify:\n  tolerance: -1\n"},
		{"bad yaml", "transform: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "edt3d.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "edt3d.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
