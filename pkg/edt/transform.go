// Package edt computes the exact 3D Euclidean distance transform of a
// binary volume with the separable algorithm of Saito and Toriwaki.
//
// The squared distance to the nearest foreground voxel is first found
// along every column line, then propagated along rows and finally along
// bands by a 1D lower-envelope minimization. The result is converted to
// either float32 distances or int16 distances scaled by 10.
//
// Reference: T. Saito, J. Toriwaki (1994). "New algorithms for euclidean
// distance transformation of an n-dimensional digitized picture with
// applications", Pattern Recognition 27(11), 1551-1565.
package edt

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"edt3d/internal/models"
)

// DefaultMaxVoxels bounds the volume size accepted when Options.MaxVoxels
// is zero.
const DefaultMaxVoxels = 1 << 30

// Options configures a Transformer.
type Options struct {
	// Workers is the number of goroutines each pass is split across.
	// Zero or less uses runtime.NumCPU(); 1 runs sequentially.
	Workers int

	// MaxVoxels is the largest volume accepted. Zero means
	// DefaultMaxVoxels, a negative value disables the check.
	MaxVoxels int
}

// Transformer runs distance transforms with a fixed set of options. It is
// safe for concurrent use.
type Transformer struct {
	opts Options
}

// New returns a Transformer configured with opts.
func New(opts Options) *Transformer {
	if opts.MaxVoxels == 0 {
		opts.MaxVoxels = DefaultMaxVoxels
	}
	return &Transformer{opts: opts}
}

// Transform computes the distance transform of vol with default options.
func Transform(vol *models.Volume, kind OutputKind) (*Field, error) {
	return New(Options{}).Transform(vol, kind)
}

// Transform computes the distance transform of vol and encodes it as kind.
// The volume must be of bit representation.
func (t *Transformer) Transform(vol *models.Volume, kind OutputKind) (*Field, error) {
	if err := checkRepn(vol); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, errors.Wrapf(ErrInvalidOutputKind, "got %v", kind)
	}
	if kind == ScaledFixedPoint {
		return t.Fixed(vol)
	}
	return t.Float(vol)
}

// Float computes the distance transform of vol as float32 distances.
// Voxels in a volume without foreground get +Inf.
func (t *Transformer) Float(vol *models.Volume) (*Field, error) {
	sq, err := t.SquaredDistances(vol)
	if err != nil {
		return nil, err
	}
	out := newField(vol.Bands, vol.Rows, vol.Columns, FloatingPoint)
	finishFloat(sq, out.Float)
	return out, nil
}

// Fixed computes the distance transform of vol as int16 values holding
// round(10*distance). Values that do not fit are clamped to math.MaxInt16,
// which is also what voxels without reachable foreground receive.
func (t *Transformer) Fixed(vol *models.Volume) (*Field, error) {
	sq, err := t.SquaredDistances(vol)
	if err != nil {
		return nil, err
	}
	out := newField(vol.Bands, vol.Rows, vol.Columns, ScaledFixedPoint)
	finishFixed(sq, out.Fixed)
	return out, nil
}

// SquaredDistances returns, for every voxel of vol in band-major order, the
// squared Euclidean distance to the nearest foreground voxel. Foreground
// voxels are 0; when vol has no foreground every value is +Inf.
func (t *Transformer) SquaredDistances(vol *models.Volume) ([]float64, error) {
	g, err := t.validate(vol)
	if err != nil {
		return nil, err
	}

	log := Logger()
	sq := make([]float64, len(vol.Data))

	start := time.Now()
	columnPass(vol.Data, sq, g, t.opts.Workers)
	log.Debug("edt: column pass", "lines", g.bands*g.rows, "elapsed", time.Since(start))

	start = time.Now()
	rowPass(vol.Data, sq, g, t.opts.Workers)
	log.Debug("edt: row pass", "lines", g.bands*g.columns, "elapsed", time.Since(start))

	start = time.Now()
	bandPass(vol.Data, sq, g, t.opts.Workers)
	log.Debug("edt: band pass", "lines", g.rows*g.columns, "elapsed", time.Since(start))

	return sq, nil
}

func checkRepn(vol *models.Volume) error {
	if vol == nil {
		return errors.Wrap(ErrInvalidInputKind, "nil volume")
	}
	if vol.Repn != models.BitRepn {
		return errors.Wrapf(ErrInvalidInputKind, "got %s", vol.Repn)
	}
	return nil
}

func (t *Transformer) validate(vol *models.Volume) (grid, error) {
	if err := checkRepn(vol); err != nil {
		return grid{}, err
	}

	g := grid{bands: vol.Bands, rows: vol.Rows, columns: vol.Columns}
	n, err := t.voxelCount(g)
	if err != nil {
		return grid{}, err
	}
	if len(vol.Data) != n {
		return grid{}, errors.Wrapf(ErrDimensionMismatch, "%dx%dx%d volume has %d samples",
			g.bands, g.rows, g.columns, len(vol.Data))
	}

	for i, v := range vol.Data {
		if v != 0 && v != 1 {
			return grid{}, errors.Wrapf(ErrInvalidInputKind, "sample %d is %g", i, v)
		}
	}
	return g, nil
}

func (t *Transformer) voxelCount(g grid) (int, error) {
	if g.bands < 1 || g.rows < 1 || g.columns < 1 {
		return 0, errors.Wrapf(ErrAllocation, "invalid dimensions %dx%dx%d", g.bands, g.rows, g.columns)
	}
	n := g.bands
	for _, d := range []int{g.rows, g.columns} {
		if n > math.MaxInt/d {
			return 0, errors.Wrapf(ErrAllocation, "dimensions %dx%dx%d overflow", g.bands, g.rows, g.columns)
		}
		n *= d
	}
	if t.opts.MaxVoxels > 0 && n > t.opts.MaxVoxels {
		return 0, errors.Wrapf(ErrAllocation, "%d voxels exceeds limit of %d", n, t.opts.MaxVoxels)
	}
	return n, nil
}
