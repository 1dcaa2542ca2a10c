package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"edt3d/pkg/edt"
)

// Viewer renders planes of a distance field as 16-bit gray images.
// Distances are normalized to the largest finite distance in the field so
// that foreground is black and the farthest voxel is white; voxels without
// reachable foreground are also white.
type Viewer struct {
	field *edt.Field

	// distances holds the decoded field, band-major
	distances []float64

	// scale is the largest finite distance, or 1 if there is none
	scale float64
}

// NewViewer creates a viewer for field
func NewViewer(field *edt.Field) *Viewer {
	v := &Viewer{
		field:     field,
		distances: field.Distances(),
		scale:     1,
	}
	maxDist := 0.0
	for i, d := range v.distances {
		if !field.Saturated(i) && d > maxDist {
			maxDist = d
		}
	}
	if maxDist > 0 {
		v.scale = maxDist
	}
	return v
}

func (v *Viewer) gray(idx int) color.Gray16 {
	if v.field.Saturated(idx) {
		return color.Gray16{Y: 65535}
	}
	value := uint16(math.Max(0, math.Min(65535, math.Round(v.distances[idx]/v.scale*65535))))
	return color.Gray16{Y: value}
}

// ExtractSlice extracts a 2D plane from the field along the specified axis:
// "x" fixes a column, "y" a row and "z" a band.
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray16, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	f := v.field
	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Extract slice along the row/band plane
		if position >= f.Columns {
			return nil, fmt.Errorf("position %d exceeds width %d", position, f.Columns)
		}

		img = image.NewGray16(image.Rect(0, 0, f.Bands, f.Rows))
		for r := 0; r < f.Rows; r++ {
			for b := 0; b < f.Bands; b++ {
				img.SetGray16(b, r, v.gray(f.Index(b, r, position)))
			}
		}

	case "y", "Y":
		// Extract slice along the column/band plane
		if position >= f.Rows {
			return nil, fmt.Errorf("position %d exceeds height %d", position, f.Rows)
		}

		img = image.NewGray16(image.Rect(0, 0, f.Columns, f.Bands))
		for b := 0; b < f.Bands; b++ {
			for c := 0; c < f.Columns; c++ {
				img.SetGray16(c, b, v.gray(f.Index(b, position, c)))
			}
		}

	case "z", "Z":
		// Extract a single band
		if position >= f.Bands {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, f.Bands)
		}

		img = image.NewGray16(image.Rect(0, 0, f.Columns, f.Rows))
		for r := 0; r < f.Rows; r++ {
			for c := 0; c < f.Columns; c++ {
				img.SetGray16(c, r, v.gray(f.Index(position, r, c)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// ExtractRegion extracts the decoded distances of a 3D subregion, ordered
// band-major like the field itself.
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) ([]float64, error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}

	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	f := v.field
	if startX+sizeX > f.Columns || startY+sizeY > f.Rows || startZ+sizeZ > f.Bands {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := make([]float64, sizeX*sizeY*sizeZ)
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			src := f.Index(startZ+z, startY+y, startX)
			dst := (z*sizeY + y) * sizeX
			copy(region[dst:dst+sizeX], v.distances[src:src+sizeX])
		}
	}

	return region, nil
}

// SaveSlice saves an extracted slice. The format follows the file
// extension: .png, .tif/.tiff (lossless 16-bit) or .jpg/.jpeg.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	var encode func(io.Writer, image.Image) error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		encode = png.Encode
	case ".tif", ".tiff":
		encode = func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}
	case ".jpg", ".jpeg":
		encode = func(w io.Writer, m image.Image) error {
			return jpeg.Encode(w, m, &jpeg.Options{Quality: 90})
		}
	default:
		return fmt.Errorf("unsupported image format: %s", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := encode(file, img); err != nil {
		return err
	}
	return file.Close()
}

// SaveSliceSequence extracts and saves every slice along the specified axis
// as slice_<axis>_<pos>.<format>.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string, format string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if format == "" {
		format = "png"
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.field.Columns
	case "y", "Y":
		maxPos = v.field.Rows
	case "z", "Z":
		maxPos = v.field.Bands
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.%s", axis, pos, format))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
