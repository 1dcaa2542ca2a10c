// Package stats summarizes distance fields and compares them against a
// reference.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"edt3d/pkg/edt"
)

// Summary holds descriptive statistics of a distance field.
type Summary struct {
	// Voxels is the total number of voxels in the field
	Voxels int

	// Foreground counts voxels at distance zero
	Foreground int

	// Unreachable counts voxels holding the representation's sentinel
	// (+Inf for float fields, the saturated maximum for fixed point)
	Unreachable int

	// Mean, StdDev and Max describe the finite, non-sentinel distances of
	// background voxels. They are zero when there are none.
	Mean   float64
	StdDev float64
	Max    float64

	// Histogram counts background distances by integer bin: bin i holds
	// distances in [i, i+1). The last bin also collects everything above.
	Histogram []float64
}

// DefaultBins is the histogram size used by Summarize.
const DefaultBins = 32

// Summarize computes a Summary of field.
func Summarize(field *edt.Field) Summary {
	return SummarizeBins(field, DefaultBins)
}

// SummarizeBins is Summarize with a caller chosen number of histogram bins.
func SummarizeBins(field *edt.Field, bins int) Summary {
	if bins < 1 {
		bins = 1
	}
	s := Summary{
		Voxels:    field.Len(),
		Histogram: make([]float64, bins),
	}

	dist := field.Distances()
	background := make([]float64, 0, len(dist))
	for i, d := range dist {
		switch {
		case field.Saturated(i):
			s.Unreachable++
		case d == 0:
			s.Foreground++
		default:
			background = append(background, d)
		}
	}
	if len(background) == 0 {
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(background, nil)
	if len(background) == 1 {
		s.StdDev = 0
	}
	s.Max = floats.Max(background)

	dividers := make([]float64, bins+1)
	floats.Span(dividers, 0, float64(bins))
	dividers[bins] = math.Max(float64(bins), s.Max) + 1
	sort.Float64s(background)
	stat.Histogram(s.Histogram, dividers, background, nil)

	return s
}

// String formats the summary on a single line.
func (s Summary) String() string {
	return fmt.Sprintf("voxels=%d foreground=%d unreachable=%d mean=%.3f stddev=%.3f max=%.3f",
		s.Voxels, s.Foreground, s.Unreachable, s.Mean, s.StdDev, s.Max)
}

// Comparison reports how far a computed field is from a reference.
type Comparison struct {
	// RMSE is the root mean square error over voxels finite in both
	RMSE float64

	// MaxAbsError is the largest absolute difference over those voxels
	MaxAbsError float64

	// Mismatches counts voxels differing by more than the tolerance,
	// including voxels finite in one input and infinite in the other
	Mismatches int

	// Compared is the number of voxels finite in both inputs
	Compared int
}

// Compare matches got against want voxel by voxel. Voxels infinite in both
// inputs agree.
func Compare(got, want []float64, tolerance float64) (Comparison, error) {
	var c Comparison
	if len(got) != len(want) {
		return c, fmt.Errorf("length mismatch: %d != %d", len(got), len(want))
	}

	var a, b []float64
	for i := range got {
		gInf, wInf := math.IsInf(got[i], 1), math.IsInf(want[i], 1)
		if gInf || wInf {
			if gInf != wInf {
				c.Mismatches++
			}
			continue
		}
		a = append(a, got[i])
		b = append(b, want[i])
	}
	c.Compared = len(a)
	if c.Compared == 0 {
		return c, nil
	}

	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	for i, d := range diff {
		d = math.Abs(d)
		diff[i] = d
		if d > tolerance {
			c.Mismatches++
		}
	}
	c.MaxAbsError = floats.Max(diff)
	c.RMSE = floats.Norm(diff, 2) / math.Sqrt(float64(len(diff)))

	return c, nil
}

// Sqrt returns the elementwise square root of squared distances.
func Sqrt(sq []float64) []float64 {
	out := make([]float64, len(sq))
	for i, v := range sq {
		out[i] = math.Sqrt(v)
	}
	return out
}
