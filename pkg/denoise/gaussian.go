// Package denoise smooths gray slices before they are thresholded, so that
// acquisition noise does not turn into isolated foreground voxels.
package denoise

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"edt3d/internal/models"
)

// Gaussian low-pass filters every band of vol in the frequency domain with
// a Gaussian of standard deviation sigma voxels. Bands are mirrored at
// their borders before filtering so no intensity wraps around. A new
// volume is returned; sigma <= 0 returns a copy.
func Gaussian(vol *models.Volume, sigma float64, workers int) (*models.Volume, error) {
	if vol == nil {
		return nil, fmt.Errorf("nil volume")
	}
	if len(vol.Data) != vol.Len() {
		return nil, fmt.Errorf("volume data has %d values, want %d", len(vol.Data), vol.Len())
	}

	out := models.NewVolume(vol.Bands, vol.Rows, vol.Columns, vol.Repn)
	copy(out.Data, vol.Data)
	if sigma <= 0 || vol.Len() == 0 {
		return out, nil
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > vol.Bands {
		workers = vol.Bands
	}

	bandSize := vol.Rows * vol.Columns
	bands := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f := newFilter(vol.Rows, vol.Columns, sigma)
			for b := range bands {
				f.apply(out.Data[b*bandSize : (b+1)*bandSize])
			}
		}()
	}
	for b := 0; b < vol.Bands; b++ {
		bands <- b
	}
	close(bands)
	wg.Wait()

	return out, nil
}

// filter holds the FFT plans and scratch for one worker. The padded grid
// is twice the band size along both axes.
type filter struct {
	rows, cols int
	rowFFT     *fourier.CmplxFFT
	colFFT     *fourier.CmplxFFT

	// gain is the separable transfer function along each padded axis
	rowGain, colGain []float64

	grid     []complex128
	line     []complex128
	lineCoef []complex128
}

func newFilter(rows, cols int, sigma float64) *filter {
	pr, pc := 2*rows, 2*cols
	return &filter{
		rows:     rows,
		cols:     cols,
		rowFFT:   fourier.NewCmplxFFT(pc),
		colFFT:   fourier.NewCmplxFFT(pr),
		rowGain:  gaussianGain(pc, sigma),
		colGain:  gaussianGain(pr, sigma),
		grid:     make([]complex128, pr*pc),
		line:     make([]complex128, max(pr, pc)),
		lineCoef: make([]complex128, max(pr, pc)),
	}
}

// gaussianGain returns the DFT of a unit-area Gaussian sampled on n points.
func gaussianGain(n int, sigma float64) []float64 {
	g := make([]float64, n)
	for k := range g {
		f := float64(k)
		if k > n/2 {
			f -= float64(n)
		}
		f /= float64(n)
		g[k] = math.Exp(-2 * math.Pi * math.Pi * sigma * sigma * f * f)
	}
	return g
}

// apply filters one band in place.
func (f *filter) apply(band []float64) {
	pr, pc := 2*f.rows, 2*f.cols

	// Mirror the band into the padded grid
	for r := 0; r < pr; r++ {
		sr := r
		if sr >= f.rows {
			sr = pr - 1 - r
		}
		for c := 0; c < pc; c++ {
			sc := c
			if sc >= f.cols {
				sc = pc - 1 - c
			}
			f.grid[r*pc+c] = complex(band[sr*f.cols+sc], 0)
		}
	}

	// Forward transform along rows, then columns, applying the gain
	// of each axis on the way
	for r := 0; r < pr; r++ {
		row := f.grid[r*pc : (r+1)*pc]
		f.rowFFT.Coefficients(f.lineCoef[:pc], row)
		for c := range row {
			row[c] = f.lineCoef[c] * complex(f.rowGain[c], 0)
		}
	}
	for c := 0; c < pc; c++ {
		col := f.line[:pr]
		for r := range col {
			col[r] = f.grid[r*pc+c]
		}
		f.colFFT.Coefficients(f.lineCoef[:pr], col)
		for r := range col {
			col[r] = f.lineCoef[r] * complex(f.colGain[r], 0)
		}
		f.colFFT.Sequence(f.lineCoef[:pr], col)
		for r := range col {
			f.grid[r*pc+c] = f.lineCoef[r]
		}
	}

	// Inverse along rows and crop. The transforms are unnormalized.
	scale := 1 / float64(pr*pc)
	for r := 0; r < f.rows; r++ {
		row := f.grid[r*pc : (r+1)*pc]
		f.rowFFT.Sequence(f.lineCoef[:pc], row)
		for c := 0; c < f.cols; c++ {
			band[r*f.cols+c] = real(f.lineCoef[c]) * scale
		}
	}
}
