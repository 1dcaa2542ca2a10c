// Package reference provides exact nearest-foreground searches used to
// check the separable distance transform.
package reference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"edt3d/internal/models"
)

// Voxel is a grid position usable as a kd-tree point.
type Voxel struct {
	B, R, C float64
}

// Compare implements the kdtree.Comparable interface
func (v Voxel) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Voxel)
	switch d {
	case 0:
		return v.B - q.B
	case 1:
		return v.R - q.R
	case 2:
		return v.C - q.C
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (v Voxel) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two voxels
func (v Voxel) Distance(c kdtree.Comparable) float64 {
	q := c.(Voxel)
	db := v.B - q.B
	dr := v.R - q.R
	dc := v.C - q.C
	return db*db + dr*dr + dc*dc
}

// Voxels is a collection of Voxel that satisfies kdtree.Interface
type Voxels []Voxel

func (p Voxels) Index(i int) kdtree.Comparable         { return p[i] }
func (p Voxels) Len() int                              { return len(p) }
func (p Voxels) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Voxels) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(voxelPlane{Voxels: p, Dim: d}, kdtree.MedianOfRandoms(voxelPlane{Voxels: p, Dim: d}, 100))
}

// voxelPlane implements kdtree.SortSlicer for Voxels
type voxelPlane struct {
	Voxels
	kdtree.Dim
}

func (p voxelPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Voxels[i].B < p.Voxels[j].B
	case 1:
		return p.Voxels[i].R < p.Voxels[j].R
	case 2:
		return p.Voxels[i].C < p.Voxels[j].C
	default:
		panic("illegal dimension")
	}
}

func (p voxelPlane) Slice(start, end int) kdtree.SortSlicer {
	return voxelPlane{Voxels: p.Voxels[start:end], Dim: p.Dim}
}

func (p voxelPlane) Swap(i, j int) {
	p.Voxels[i], p.Voxels[j] = p.Voxels[j], p.Voxels[i]
}

// ForegroundVoxels returns the coordinates of every non-zero voxel.
func ForegroundVoxels(vol *models.Volume) Voxels {
	var fg Voxels
	for b := 0; b < vol.Bands; b++ {
		for r := 0; r < vol.Rows; r++ {
			for c := 0; c < vol.Columns; c++ {
				if vol.Foreground(vol.Index(b, r, c)) {
					fg = append(fg, Voxel{B: float64(b), R: float64(r), C: float64(c)})
				}
			}
		}
	}
	return fg
}

// Exhaustive returns squared distances by comparing every voxel against
// every foreground voxel. It is quadratic in the voxel count and meant for
// small volumes.
func Exhaustive(vol *models.Volume) ([]float64, error) {
	if err := check(vol); err != nil {
		return nil, err
	}
	fg := ForegroundVoxels(vol)
	out := make([]float64, vol.Len())

	for b := 0; b < vol.Bands; b++ {
		for r := 0; r < vol.Rows; r++ {
			for c := 0; c < vol.Columns; c++ {
				q := Voxel{B: float64(b), R: float64(r), C: float64(c)}
				best := math.Inf(1)
				for _, p := range fg {
					if d := q.Distance(p); d < best {
						best = d
					}
				}
				out[vol.Index(b, r, c)] = best
			}
		}
	}
	return out, nil
}

// KDTree returns squared distances by querying a kd-tree built over the
// foreground voxels. Results are exact and equal to Exhaustive.
func KDTree(vol *models.Volume) ([]float64, error) {
	if err := check(vol); err != nil {
		return nil, err
	}
	out := make([]float64, vol.Len())

	fg := ForegroundVoxels(vol)
	if len(fg) == 0 {
		for i := range out {
			out[i] = math.Inf(1)
		}
		return out, nil
	}
	tree := kdtree.New(fg, false)

	for b := 0; b < vol.Bands; b++ {
		for r := 0; r < vol.Rows; r++ {
			for c := 0; c < vol.Columns; c++ {
				i := vol.Index(b, r, c)
				if vol.Foreground(i) {
					continue
				}
				_, d := tree.Nearest(Voxel{B: float64(b), R: float64(r), C: float64(c)})
				out[i] = d
			}
		}
	}
	return out, nil
}

func check(vol *models.Volume) error {
	if vol == nil {
		return fmt.Errorf("nil volume")
	}
	if len(vol.Data) != vol.Len() {
		return fmt.Errorf("volume has %d samples, expected %d", len(vol.Data), vol.Len())
	}
	return nil
}
