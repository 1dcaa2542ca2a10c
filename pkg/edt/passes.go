package edt

import (
	"math"
)

// grid carries the dimensions shared by the input volume and the squared
// distance buffer.
type grid struct {
	bands, rows, columns int
}

func (g grid) maxDim() int {
	return max(g.bands, g.rows, g.columns)
}

// line is a strided view of n voxels of the flat buffer.
type line struct {
	off, stride, n int
}

func (l line) index(i int) int {
	return l.off + i*l.stride
}

// Band pass windows reach one voxel further toward lower indices than row
// pass windows. Any window holding the minimizer gives the same result.
const (
	rowSlack  = 0
	bandSlack = 1
)

// columnPass seeds sq with the squared distance to the nearest foreground
// voxel along each (band, row) line.
func columnPass(src, sq []float64, g grid, workers int) {
	forEachLine(g.bands*g.rows, workers, 0, func(k int, _ []float64) {
		base := k * g.columns
		seedLine(src[base:base+g.columns], sq[base:base+g.columns])
	})
}

// seedLine writes d*d for every voxel of a single line, where d is the
// distance to the nearest foreground voxel in either direction. A line
// without foreground is left at +Inf.
func seedLine(src, out []float64) {
	last := -1
	for c := range src {
		if src[c] != 0 {
			last = c
			out[c] = 0
			continue
		}
		if last < 0 {
			out[c] = math.Inf(1)
			continue
		}
		d := float64(c - last)
		out[c] = d * d
	}

	next := -1
	for c := len(src) - 1; c >= 0; c-- {
		if src[c] != 0 {
			next = c
			continue
		}
		if next < 0 {
			continue
		}
		d := float64(next - c)
		if d*d < out[c] {
			out[c] = d * d
		}
	}
}

// rowPass minimizes sq along every (band, column) line.
func rowPass(src, sq []float64, g grid, workers int) {
	forEachLine(g.bands*g.columns, workers, g.maxDim(), func(k int, scratch []float64) {
		b, c := k/g.columns, k%g.columns
		l := line{off: b*g.rows*g.columns + c, stride: g.columns, n: g.rows}
		propagate(src, sq, l, rowSlack, scratch)
	})
}

// bandPass minimizes sq along every (row, column) line.
func bandPass(src, sq []float64, g grid, workers int) {
	forEachLine(g.rows*g.columns, workers, g.maxDim(), func(k int, scratch []float64) {
		l := line{off: k, stride: g.rows * g.columns, n: g.bands}
		propagate(src, sq, l, bandSlack, scratch)
	})
}

// propagate replaces every background value of the line with
// min f[j] + (i-j)^2 over the search window of i. The line is copied into
// scratch first so that updated values do not feed later positions.
func propagate(src, sq []float64, l line, slack int, scratch []float64) {
	f := scratch[:l.n]
	for i := range f {
		f[i] = sq[l.index(i)]
	}

	for i := 0; i < l.n; i++ {
		at := l.index(i)
		if src[at] != 0 {
			continue
		}
		lo, hi := window(f[i], i, slack, l.n)
		dmin := math.Inf(1)
		for j := lo; j < hi; j++ {
			d := float64(i - j)
			if u := f[j] + d*d; u < dmin {
				dmin = u
			}
		}
		sq[at] = dmin
	}
}

// window returns the half-open candidate range [lo, hi) for position i of
// an n-long line whose current squared distance is v. No candidate further
// than sqrt(v) away can improve on v itself.
func window(v float64, i, slack, n int) (lo, hi int) {
	if math.IsInf(v, 1) || v >= float64(n)*float64(n) {
		return 0, n
	}
	g := int(math.Ceil(math.Sqrt(v)))
	lo = max(i-g-slack, 0)
	hi = min(i+g+1, n)
	return lo, hi
}
