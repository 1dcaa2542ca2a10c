package models

import (
	"fmt"
)

// PixelRepn identifies how the samples of a Volume are to be interpreted.
type PixelRepn int

const (
	UnknownRepn PixelRepn = iota

	// BitRepn volumes hold only 0 (background) and 1 (foreground).
	BitRepn

	// ShortRepn volumes hold integer intensities.
	ShortRepn

	// FloatRepn volumes hold continuous intensities, usually in [0, 1].
	FloatRepn
)

func (p PixelRepn) String() string {
	switch p {
	case BitRepn:
		return "bit"
	case ShortRepn:
		return "short"
	case FloatRepn:
		return "float"
	default:
		return fmt.Sprintf("repn(%d)", int(p))
	}
}

// Volume represents a dense 3D grid of samples
type Volume struct {
	// Data holds the samples as a 1D array in band-major order:
	// index = band*Rows*Columns + row*Columns + column
	Data []float64

	// Bands is the number of slices along the slowest axis
	Bands int

	// Rows is the height of each band
	Rows int

	// Columns is the width of each band (fastest-varying axis)
	Columns int

	// Repn tells consumers how to read Data
	Repn PixelRepn
}

// NewVolume allocates a zeroed volume of the given dimensions.
func NewVolume(bands, rows, columns int, repn PixelRepn) *Volume {
	return &Volume{
		Data:    make([]float64, bands*rows*columns),
		Bands:   bands,
		Rows:    rows,
		Columns: columns,
		Repn:    repn,
	}
}

// Len returns the number of voxels implied by the dimensions.
func (v *Volume) Len() int {
	return v.Bands * v.Rows * v.Columns
}

// Index returns the offset of voxel (b, r, c) in Data.
func (v *Volume) Index(b, r, c int) int {
	return (b*v.Rows+r)*v.Columns + c
}

// At returns the sample at (b, r, c).
func (v *Volume) At(b, r, c int) float64 {
	return v.Data[v.Index(b, r, c)]
}

// Set stores a sample at (b, r, c).
func (v *Volume) Set(b, r, c int, value float64) {
	v.Data[v.Index(b, r, c)] = value
}

// Foreground reports whether the voxel at offset i is set. Only meaningful
// for BitRepn volumes.
func (v *Volume) Foreground(i int) bool {
	return v.Data[i] != 0
}

// Slice represents a single 2D input slice with metadata
type Slice struct {
	// Index is the position of this slice in the sequence
	Index int

	// Filename is the original filename of the slice
	Filename string

	// Width and Height are the dimensions of the slice in pixels
	Width, Height int

	// Data holds gray values in [0, 1], row-major
	Data []float64
}
