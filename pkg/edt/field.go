package edt

import (
	"math"
)

// Field is the result of a distance transform. Exactly one of Fixed and
// Float is populated, according to Kind.
type Field struct {
	Bands, Rows, Columns int

	Kind OutputKind

	// Fixed holds round(10*distance), saturated at math.MaxInt16.
	Fixed []int16

	// Float holds the distance in voxel units. Voxels with no reachable
	// foreground hold +Inf.
	Float []float32
}

func newField(bands, rows, columns int, kind OutputKind) *Field {
	f := &Field{
		Bands:   bands,
		Rows:    rows,
		Columns: columns,
		Kind:    kind,
	}
	n := bands * rows * columns
	switch kind {
	case ScaledFixedPoint:
		f.Fixed = make([]int16, n)
	case FloatingPoint:
		f.Float = make([]float32, n)
	}
	return f
}

// Len returns the number of voxels in the field.
func (f *Field) Len() int {
	return f.Bands * f.Rows * f.Columns
}

// Index returns the flat offset of voxel (b, r, c).
func (f *Field) Index(b, r, c int) int {
	return (b*f.Rows+r)*f.Columns + c
}

// Raw returns the stored value at (b, r, c) without decoding.
func (f *Field) Raw(b, r, c int) float64 {
	return f.rawAt(f.Index(b, r, c))
}

// At returns the distance at (b, r, c) in voxel units. Fixed point values
// are divided by FixedPointScale; a saturated value decodes to
// math.MaxInt16/10 rather than to the true distance.
func (f *Field) At(b, r, c int) float64 {
	return f.distanceAt(f.Index(b, r, c))
}

// Saturated reports whether the voxel at offset i holds the sentinel
// value of its representation: +Inf for float fields and math.MaxInt16
// for fixed point fields.
func (f *Field) Saturated(i int) bool {
	if f.Kind == ScaledFixedPoint {
		return f.Fixed[i] == math.MaxInt16
	}
	return math.IsInf(float64(f.Float[i]), 1)
}

// Distances returns a decoded copy of the field.
func (f *Field) Distances() []float64 {
	out := make([]float64, f.Len())
	for i := range out {
		out[i] = f.distanceAt(i)
	}
	return out
}

func (f *Field) rawAt(i int) float64 {
	if f.Kind == ScaledFixedPoint {
		return float64(f.Fixed[i])
	}
	return float64(f.Float[i])
}

func (f *Field) distanceAt(i int) float64 {
	if f.Kind == ScaledFixedPoint {
		return float64(f.Fixed[i]) / FixedPointScale
	}
	return float64(f.Float[i])
}
