package volumeio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"edt3d/internal/models"
	"edt3d/pkg/edt"
)

// createTestImage creates a grayscale test image with the specified dimensions and pattern
func createTestImage(width, height int, pattern func(x, y int) uint16) image.Image {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.Gray16{Y: pattern(x, y)})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestExtractNumber(t *testing.T) {
	testCases := []struct {
		filename string
		expected int
	}{
		{"slice_1.png", 1},
		{"slice_023.png", 23},
		{"img456.tif", 456},
		{"not_a_number.png", 0},
		{"mixed123text456.png", 123456},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, extractNumber(tc.filename), tc.filename)
	}
}

func TestLoadSlicesOrderAndBinarize(t *testing.T) {
	dir := t.TempDir()

	// Each slice is bright only at column == band index, written out of
	// lexical order to check numeric sorting.
	for _, i := range []int{10, 2, 0} {
		band := map[int]int{0: 0, 2: 1, 10: 2}[i]
		img := createTestImage(4, 3, func(x, y int) uint16 {
			if x == band {
				return 65535
			}
			return 0
		})
		writePNG(t, filepath.Join(dir, fmt.Sprintf("slice_%d.png", i)), img)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	vol, err := LoadSlices(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, vol.Bands)
	assert.Equal(t, 3, vol.Rows)
	assert.Equal(t, 4, vol.Columns)
	assert.Equal(t, models.FloatRepn, vol.Repn)

	for b := 0; b < 3; b++ {
		for c := 0; c < 4; c++ {
			want := 0.0
			if c == b {
				want = 1
			}
			assert.InDelta(t, want, vol.At(b, 1, c), 1e-9, "band %d column %d", b, c)
		}
	}

	bits := Binarize(vol, 0.5, false)
	assert.Equal(t, models.BitRepn, bits.Repn)
	assert.Equal(t, 1.0, bits.At(2, 0, 2))
	assert.Equal(t, 0.0, bits.At(2, 0, 1))

	inverted := Binarize(vol, 0.5, true)
	assert.Equal(t, 0.0, inverted.At(2, 0, 2))
	assert.Equal(t, 1.0, inverted.At(2, 0, 1))
}

func TestLoadSlicesTIFF(t *testing.T) {
	dir := t.TempDir()
	img := createTestImage(2, 2, func(x, y int) uint16 { return uint16(x * 65535) })

	f, err := os.Create(filepath.Join(dir, "s1.tif"))
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, img, nil))
	require.NoError(t, f.Close())

	vol, err := LoadSlices(dir, []string{".tif"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 1}, vol.Data)
}

func TestLoadSlicesErrors(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := LoadSlices(t.TempDir(), nil)
		assert.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadSlices(filepath.Join(t.TempDir(), "nope"), nil)
		assert.Error(t, err)
	})

	t.Run("size mismatch", func(t *testing.T) {
		dir := t.TempDir()
		writePNG(t, filepath.Join(dir, "a1.png"), createTestImage(4, 4, func(x, y int) uint16 { return 0 }))
		writePNG(t, filepath.Join(dir, "a2.png"), createTestImage(4, 5, func(x, y int) uint16 { return 0 }))
		_, err := LoadSlices(dir, nil)
		assert.ErrorContains(t, err, "expected 4x4")
	})
}

func TestRawRoundTrip(t *testing.T) {
	vol := models.NewVolume(2, 3, 4, models.BitRepn)
	vol.Set(1, 1, 1, 1)

	for _, kind := range []edt.OutputKind{edt.FloatingPoint, edt.ScaledFixedPoint} {
		field, err := edt.Transform(vol, kind)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, WriteRaw(&buf, field))

		got, err := ReadRaw(&buf)
		require.NoError(t, err)
		assert.Equal(t, field, got, kind.String())
	}
}

func TestRawInfinity(t *testing.T) {
	field, err := edt.Transform(models.NewVolume(1, 2, 2, models.BitRepn), edt.FloatingPoint)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "field.raw")
	require.NoError(t, SaveRaw(path, field))

	got, err := LoadRaw(path)
	require.NoError(t, err)
	for _, v := range got.Float {
		assert.True(t, math.IsInf(float64(v), 1))
	}
}

func TestReadRawRejectsGarbage(t *testing.T) {
	_, err := ReadRaw(bytes.NewReader([]byte("not a field at all, really")))
	assert.ErrorContains(t, err, "not a raw distance field")

	_, err = ReadRaw(bytes.NewReader(nil))
	assert.Error(t, err)
}

func rawHeaderBytes(t *testing.T, kind edt.OutputKind, bands, rows, columns uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	h := rawHeader{
		Magic:   rawMagic,
		Version: rawVersion,
		Kind:    uint8(kind),
		Bands:   bands,
		Rows:    rows,
		Columns: columns,
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h))
	return buf.Bytes()
}

func TestReadRawRejectsBadHeaders(t *testing.T) {
	testCases := []struct {
		name    string
		data    []byte
		message string
	}{
		{"oversized", rawHeaderBytes(t, edt.FloatingPoint, math.MaxUint32, math.MaxUint32, math.MaxUint32), "exceed"},
		{"just over limit", rawHeaderBytes(t, edt.ScaledFixedPoint, 1<<10, 1<<10, 1<<10+1), "exceed"},
		{"zero dimension", rawHeaderBytes(t, edt.FloatingPoint, 4, 0, 4), "invalid raw dimensions"},
		{"bad kind", rawHeaderBytes(t, edt.OutputKind(7), 1, 1, 1), "output kind must be"},
		{"truncated header", rawHeaderBytes(t, edt.FloatingPoint, 2, 2, 2)[:10], "reading raw header"},
		{"truncated samples", append(rawHeaderBytes(t, edt.FloatingPoint, 2, 2, 2), 0, 0, 0, 0), "reading raw samples"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadRaw(bytes.NewReader(tc.data))
			assert.ErrorContains(t, err, tc.message)
		})
	}
}
