package main

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"edt3d/internal/models"
	"edt3d/pkg/edt"
	"edt3d/pkg/pipeline"
	"edt3d/pkg/reference"
	"edt3d/pkg/stats"
	"edt3d/pkg/volumeio"
)

var (
	vfSize       []int
	vfDensity    float64
	vfSeed       uint64
	vfExhaustive bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify [slice-dir]",
		Short: "Check the transform against an exact nearest-neighbour search",
		Long: "Runs the transform in both output kinds and compares it with a kd-tree search. " +
			"Without <slice-dir> a random volume is generated.",
		Args: cobra.MaximumNArgs(1),
		RunE: runVerify,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().IntSliceVar(&vfSize, "size", []int{16, 24, 32}, "random volume size: bands,rows,columns")
	cmd.Flags().Float64Var(&vfDensity, "density", 0.01, "fraction of foreground voxels in the random volume")
	cmd.Flags().Uint64Var(&vfSeed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&vfExhaustive, "exhaustive", false, "also compare with a brute force search (slow)")
}

// randomVolume returns a bit volume with roughly density*N foreground voxels.
func randomVolume(bands, rows, columns int, density float64, seed uint64) *models.Volume {
	rng := rand.New(rand.NewPCG(seed, seed))
	vol := models.NewVolume(bands, rows, columns, models.BitRepn)
	for i := range vol.Data {
		if rng.Float64() < density {
			vol.Data[i] = 1
		}
	}
	return vol
}

// exhaustiveComparable decodes field for comparison with brute force
// distances. Saturated fixed point voxels are replaced by the brute force
// value only where that value saturates too.
func exhaustiveComparable(field *edt.Field, brute []float64) []float64 {
	got := field.Distances()
	if field.Kind != edt.ScaledFixedPoint {
		return got
	}
	for i := range got {
		if field.Saturated(i) && math.Round(brute[i]*edt.FixedPointScale) >= math.MaxInt16 {
			got[i] = brute[i]
		}
	}
	return got
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Output.Verbose)

	var vol *models.Volume
	if len(args) == 1 {
		gray, err := volumeio.LoadSlices(args[0], cfg.Input.Extensions)
		if err != nil {
			return err
		}
		vol = volumeio.Binarize(gray, cfg.Input.Threshold, cfg.Input.Invert)
	} else {
		if len(vfSize) != 3 {
			return fmt.Errorf("--size needs three values, got %d", len(vfSize))
		}
		n := 1
		for _, d := range vfSize {
			if d < 1 {
				return fmt.Errorf("--size values must be at least 1, got %v", vfSize)
			}
			if n > edt.DefaultMaxVoxels/d {
				return fmt.Errorf("--size %v exceeds %d voxels", vfSize, edt.DefaultMaxVoxels)
			}
			n *= d
		}
		vol = randomVolume(vfSize[0], vfSize[1], vfSize[2], vfDensity, vfSeed)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "volume: %d bands x %d rows x %d columns, %d foreground\n",
		vol.Bands, vol.Rows, vol.Columns, len(reference.ForegroundVoxels(vol)))

	var brute []float64
	if vfExhaustive {
		sq, err := reference.Exhaustive(vol)
		if err != nil {
			return err
		}
		brute = stats.Sqrt(sq)
	}

	failed := false
	for _, kind := range []edt.OutputKind{edt.FloatingPoint, edt.ScaledFixedPoint} {
		params := &pipeline.Params{
			Kind:            kind,
			Workers:         cfg.Transform.Workers,
			MaxVoxels:       cfg.Transform.MaxVoxels,
			Verify:          true,
			VerifyTolerance: cfg.Verify.Tolerance,
		}
		p := pipeline.New(params, logger)
		if err := p.RunVolume(vol); err != nil {
			fmt.Fprintf(out, "%-6s FAIL: %v\n", kind, err)
			failed = true
			continue
		}
		cmp := p.GetMetrics().Comparison
		fmt.Fprintf(out, "%-6s ok: %d voxels, rmse=%.4f max error=%.4f\n",
			kind, cmp.Compared, cmp.RMSE, cmp.MaxAbsError)

		if brute != nil {
			got := exhaustiveComparable(p.Field(), brute)
			bc, err := stats.Compare(got, brute, cfg.Verify.Tolerance)
			if err != nil {
				return err
			}
			if bc.Mismatches > 0 {
				fmt.Fprintf(out, "%-6s FAIL: %d voxels differ from brute force search\n", kind, bc.Mismatches)
				failed = true
			}
		}
	}

	if failed {
		return fmt.Errorf("verification failed")
	}
	return nil
}
