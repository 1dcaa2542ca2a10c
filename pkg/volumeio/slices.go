// Package volumeio reads slice stacks into volumes and stores distance
// fields.
package volumeio

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"edt3d/internal/models"
)

// DefaultExtensions lists the slice file types LoadSlices picks up when
// none are given.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}

// ListSlices returns the slice files in dir whose extension is in exts,
// ordered by the number embedded in their names.
func ListSlices(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading slice directory")
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range exts {
			if ext == strings.ToLower(want) {
				files = append(files, entry.Name())
				break
			}
		}
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no slice images found in %s", dir)
	}

	// Slices must stay in acquisition order; names like slice_2 and
	// slice_10 sort wrongly as plain strings.
	sort.SliceStable(files, func(i, j int) bool {
		ni, nj := extractNumber(files[i]), extractNumber(files[j])
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})

	paths := make([]string, len(files))
	for i, name := range files {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// LoadSlice decodes a single image and converts it to gray values in [0, 1].
func LoadSlice(path string) (*models.Slice, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	bounds := img.Bounds()
	s := &models.Slice{
		Filename: filepath.Base(path),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Data:     imageToFloat(img),
	}
	return s, nil
}

// imageToFloat converts an image to row-major gray values in [0, 1]
func imageToFloat(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			result[y*width+x] = float64(g.Y) / 65535.0
		}
	}

	return result
}

// LoadSlices stacks the slices of dir into a FloatRepn volume. Each slice
// becomes one band; image rows and columns map to volume rows and columns.
func LoadSlices(dir string, exts []string) (*models.Volume, error) {
	paths, err := ListSlices(dir, exts)
	if err != nil {
		return nil, err
	}

	var vol *models.Volume
	for i, path := range paths {
		s, err := LoadSlice(path)
		if err != nil {
			return nil, err
		}
		s.Index = i

		// All slices must share the dimensions of the first one
		if vol == nil {
			vol = models.NewVolume(len(paths), s.Height, s.Width, models.FloatRepn)
		} else if s.Width != vol.Columns || s.Height != vol.Rows {
			return nil, errors.Errorf("slice %s is %dx%d, expected %dx%d",
				s.Filename, s.Width, s.Height, vol.Columns, vol.Rows)
		}

		copy(vol.Data[vol.Index(i, 0, 0):], s.Data)
	}
	return vol, nil
}

// Binarize converts an intensity volume into a bit volume. Voxels at or
// above threshold become foreground; invert flips the test.
func Binarize(vol *models.Volume, threshold float64, invert bool) *models.Volume {
	out := models.NewVolume(vol.Bands, vol.Rows, vol.Columns, models.BitRepn)
	for i, v := range vol.Data {
		if (v >= threshold) != invert {
			out.Data[i] = 1
		}
	}
	return out
}
