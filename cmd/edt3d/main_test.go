package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edt3d/pkg/config"
	"edt3d/pkg/edt"
	"edt3d/pkg/volumeio"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "edt3d "+version+"\n", out)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edt3d.yaml")

	out, err := execute(t, "config", "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = execute(t, "config", "init", "--output", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--output", path, "--force")
	assert.NoError(t, err)
}

func TestVerifyRandomVolume(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "absent.yaml")
	out, err := execute(t, "verify", "--config", cfgPath, "--size", "5,6,7",
		"--density", "0.05", "--seed", "3", "--exhaustive", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "5 bands x 6 rows x 7 columns")
	assert.Contains(t, out, "float  ok")
	assert.Contains(t, out, "short  ok")
	assert.NotContains(t, out, "FAIL")
}

func TestVerifyBadSize(t *testing.T) {
	_, err := execute(t, "verify", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--size", "4,4")
	assert.ErrorContains(t, err, "three values")

	_, err = execute(t, "verify", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--size", "-1,2,3")
	assert.ErrorContains(t, err, "at least 1")

	_, err = execute(t, "verify", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--size", "2,0,3")
	assert.ErrorContains(t, err, "at least 1")

	_, err = execute(t, "verify", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--size", "2048,2048,2048")
	assert.ErrorContains(t, err, "exceeds")
	vfSize = []int{16, 24, 32}
}

func TestExhaustiveComparable(t *testing.T) {
	inf := math.Inf(1)

	// A float field reporting +Inf where a foreground voxel is reachable
	// must still differ from the brute force distances
	floatField := &edt.Field{Bands: 1, Rows: 1, Columns: 2, Kind: edt.FloatingPoint,
		Float: []float32{0, float32(inf)}}
	got := exhaustiveComparable(floatField, []float64{0, 1})
	assert.True(t, math.IsInf(got[1], 1))

	fixed := &edt.Field{Bands: 1, Rows: 1, Columns: 3, Kind: edt.ScaledFixedPoint,
		Fixed: []int16{0, math.MaxInt16, math.MaxInt16}}
	got = exhaustiveComparable(fixed, []float64{0, 5000, 2})
	assert.Equal(t, []float64{0, 5000, 3276.7}, got)
}

func TestTransform(t *testing.T) {
	inputDir := t.TempDir()
	for i, name := range []string{"s1.png", "s2.png"} {
		img := image.NewGray(image.Rect(0, 0, 6, 4))
		img.SetGray(i+1, 2, color.Gray{Y: 255})
		f, err := os.Create(filepath.Join(inputDir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}

	outputDir := filepath.Join(t.TempDir(), "out")
	out, err := execute(t, "transform", inputDir,
		"--config", filepath.Join(t.TempDir(), "absent.yaml"),
		"--output-dir", outputDir, "--kind", "short", "--verify",
		"--save-slices", "--axes", "z,y")
	require.NoError(t, err)
	assert.Contains(t, out, "2 bands x 4 rows x 6 columns (short)")
	assert.Contains(t, out, "verified: 48 voxels")

	field, err := volumeio.LoadRaw(filepath.Join(outputDir, "distance.raw"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, field.At(0, 2, 1))
	assert.Equal(t, 1.0, field.At(0, 2, 2))
	assert.Equal(t, 1.4, field.At(1, 1, 1))

	assert.FileExists(t, filepath.Join(outputDir, "slices", "z", "slice_z_001.png"))
	assert.FileExists(t, filepath.Join(outputDir, "slices", "y", "slice_y_003.png"))
}

func TestTransformMissingInput(t *testing.T) {
	_, err := execute(t, "transform")
	assert.Error(t, err)
}
