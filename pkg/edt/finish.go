package edt

import (
	"math"
)

// finishFloat stores sqrt(v) for every squared distance.
func finishFloat(sq []float64, out []float32) {
	for i, v := range sq {
		out[i] = float32(math.Sqrt(v))
	}
}

// finishFixed stores round(10*sqrt(v)) for every squared distance, clamped
// to math.MaxInt16.
func finishFixed(sq []float64, out []int16) {
	for i, v := range sq {
		out[i] = scaleFixed(v)
	}
}

func scaleFixed(sq float64) int16 {
	d := math.Round(FixedPointScale * math.Sqrt(sq))
	if d >= math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(d)
}
