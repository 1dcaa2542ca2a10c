// Package pipeline runs the distance transform end to end: slices are
// loaded from disk, optionally smoothed, thresholded into a binary volume,
// transformed, and optionally checked against an exact nearest-neighbour search before the
// results are written out.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"edt3d/internal/models"
	"edt3d/pkg/config"
	"edt3d/pkg/denoise"
	"edt3d/pkg/edt"
	"edt3d/pkg/reference"
	"edt3d/pkg/stats"
	"edt3d/pkg/visualization"
	"edt3d/pkg/volumeio"
)

// RawFileName is the name of the raw distance field inside OutputDir.
const RawFileName = "distance.raw"

// Params holds the pipeline parameters.
type Params struct {
	// InputDir is the directory containing the 2D slice images. Slices are
	// ordered by the number embedded in their file name.
	InputDir string

	// Extensions restricts which files in InputDir are read
	Extensions []string

	// Threshold and Invert control binarization of gray slices
	Threshold float64
	Invert    bool

	// Smooth is the Gaussian sigma applied to gray slices before
	// thresholding; zero disables smoothing
	Smooth float64

	// Kind selects the output representation
	Kind edt.OutputKind

	// Workers and MaxVoxels are passed to the transformer
	Workers   int
	MaxVoxels int

	// OutputDir receives the raw field and rendered slices
	OutputDir string

	SaveRaw     bool
	SaveSlices  bool
	SliceAxes   []string
	SliceFormat string

	// Verify compares the result with a kd-tree search. Volumes larger
	// than VerifyMaxVoxels (when positive) are not verified.
	Verify          bool
	VerifyTolerance float64
	VerifyMaxVoxels int
}

// ParamsFromConfig builds Params from a loaded configuration.
func ParamsFromConfig(cfg *config.Config, inputDir string) (*Params, error) {
	kind, err := cfg.OutputKind()
	if err != nil {
		return nil, err
	}
	return &Params{
		InputDir:        inputDir,
		Extensions:      cfg.Input.Extensions,
		Threshold:       cfg.Input.Threshold,
		Invert:          cfg.Input.Invert,
		Smooth:          cfg.Input.Smooth,
		Kind:            kind,
		Workers:         cfg.Transform.Workers,
		MaxVoxels:       cfg.Transform.MaxVoxels,
		OutputDir:       cfg.Output.Dir,
		SaveRaw:         cfg.Output.SaveRaw,
		SaveSlices:      cfg.Output.SaveSlices,
		SliceAxes:       cfg.Output.SliceAxes,
		SliceFormat:     cfg.Output.Format,
		Verify:          cfg.Verify.Enabled,
		VerifyTolerance: cfg.Verify.Tolerance,
		VerifyMaxVoxels: cfg.Verify.MaxVoxels,
	}, nil
}

// Metrics collects what a run produced.
type Metrics struct {
	Summary stats.Summary

	// Verified is set when the field was compared with the reference;
	// Comparison then holds the result.
	Verified   bool
	Comparison stats.Comparison

	// TransformTime covers the distance transform only
	TransformTime time.Duration

	// RawFile is the path of the written raw field, if any
	RawFile string
}

// Pipeline runs one distance transform job.
type Pipeline struct {
	params *Params
	log    *slog.Logger

	volume  *models.Volume
	field   *edt.Field
	metrics Metrics
}

// New creates a pipeline. A nil logger discards log output.
func New(params *Params, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{params: params, log: logger}
}

// Process loads the slices in InputDir and runs the pipeline on them.
func (p *Pipeline) Process() error {
	p.log.Info("step 1: loading slices", "dir", p.params.InputDir)
	vol, err := volumeio.LoadSlices(p.params.InputDir, p.params.Extensions)
	if err != nil {
		return fmt.Errorf("failed to load slices: %w", err)
	}
	p.log.Info("loaded volume", "bands", vol.Bands, "rows", vol.Rows, "columns", vol.Columns)

	return p.RunVolume(vol)
}

// RunVolume runs the pipeline on an in-memory volume. Volumes that are not
// already binary are thresholded with the configured parameters.
func (p *Pipeline) RunVolume(vol *models.Volume) error {
	if vol == nil {
		return fmt.Errorf("nil volume")
	}
	p.metrics = Metrics{}

	// Step 2: smooth and binarize
	if vol.Repn != models.BitRepn {
		if p.params.Smooth > 0 {
			p.log.Info("step 2: smoothing slices", "sigma", p.params.Smooth)
			smoothed, err := denoise.Gaussian(vol, p.params.Smooth, p.params.Workers)
			if err != nil {
				return fmt.Errorf("failed to smooth slices: %w", err)
			}
			vol = smoothed
		}
		p.log.Info("step 2: binarizing", "threshold", p.params.Threshold, "invert", p.params.Invert)
		vol = volumeio.Binarize(vol, p.params.Threshold, p.params.Invert)
	}
	p.volume = vol

	// Step 3: transform
	p.log.Info("step 3: computing distance transform", "kind", p.params.Kind, "workers", p.params.Workers)
	t := edt.New(edt.Options{Workers: p.params.Workers, MaxVoxels: p.params.MaxVoxels})
	start := time.Now()
	field, err := t.Transform(vol, p.params.Kind)
	if err != nil {
		return fmt.Errorf("distance transform failed: %w", err)
	}
	p.field = field
	p.metrics.TransformTime = time.Since(start)

	// Step 4: verify
	if p.params.Verify {
		if err := p.verify(); err != nil {
			return err
		}
	}

	// Step 5: save
	if err := p.save(); err != nil {
		return err
	}

	// Step 6: summarize
	p.metrics.Summary = stats.Summarize(field)
	p.log.Info("step 6: summary", "stats", p.metrics.Summary.String(),
		"elapsed", p.metrics.TransformTime)

	return nil
}

func (p *Pipeline) verify() error {
	if limit := p.params.VerifyMaxVoxels; limit > 0 && p.volume.Len() > limit {
		p.log.Warn("step 4: skipping verification, volume too large",
			"voxels", p.volume.Len(), "limit", limit)
		return nil
	}

	p.log.Info("step 4: verifying against kd-tree search")
	sq, err := reference.KDTree(p.volume)
	if err != nil {
		return fmt.Errorf("reference search failed: %w", err)
	}

	got := p.field.Distances()
	for i := range got {
		if p.field.Saturated(i) {
			got[i] = math.Inf(1)
		}
	}
	want := stats.Sqrt(sq)
	if p.field.Kind == edt.ScaledFixedPoint {
		// Saturated fixed point cannot be told apart from a far voxel
		for i := range want {
			if math.Round(want[i]*edt.FixedPointScale) >= math.MaxInt16 {
				want[i] = math.Inf(1)
			}
		}
	}

	cmp, err := stats.Compare(got, want, p.params.VerifyTolerance)
	if err != nil {
		return err
	}
	p.metrics.Verified = true
	p.metrics.Comparison = cmp

	p.log.Info("verification done", "compared", cmp.Compared, "rmse", cmp.RMSE,
		"maxAbsError", cmp.MaxAbsError, "mismatches", cmp.Mismatches)
	if cmp.Mismatches > 0 {
		return fmt.Errorf("verification failed: %d voxels differ by more than %g",
			cmp.Mismatches, p.params.VerifyTolerance)
	}
	return nil
}

func (p *Pipeline) save() error {
	if !p.params.SaveRaw && !p.params.SaveSlices {
		return nil
	}
	if err := os.MkdirAll(p.params.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if p.params.SaveRaw {
		path := filepath.Join(p.params.OutputDir, RawFileName)
		p.log.Info("step 5: saving raw field", "path", path)
		if err := volumeio.SaveRaw(path, p.field); err != nil {
			return fmt.Errorf("failed to save raw field: %w", err)
		}
		p.metrics.RawFile = path
	}

	if p.params.SaveSlices {
		viewer := visualization.NewViewer(p.field)
		for _, axis := range p.params.SliceAxes {
			dir := filepath.Join(p.params.OutputDir, "slices", axis)
			p.log.Info("step 5: saving slices", "axis", axis, "dir", dir)
			if err := viewer.SaveSliceSequence(axis, dir, p.params.SliceFormat); err != nil {
				return fmt.Errorf("failed to save %s-axis slices: %w", axis, err)
			}
		}
	}

	return nil
}

// Field returns the computed distance field, or nil before a run.
func (p *Pipeline) Field() *edt.Field {
	return p.field
}

// Volume returns the binary volume the field was computed from.
func (p *Pipeline) Volume() *models.Volume {
	return p.volume
}

// GetMetrics returns the metrics of the last run.
func (p *Pipeline) GetMetrics() Metrics {
	return p.metrics
}
