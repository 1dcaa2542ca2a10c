package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"edt3d/pkg/pipeline"
)

var (
	tfOutputDir  string
	tfKind       string
	tfThreshold  float64
	tfInvert     bool
	tfSmooth     float64
	tfNoRaw      bool
	tfSaveSlices bool
	tfAxes       []string
	tfFormat     string
	tfVerify     bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "transform <slice-dir>",
		Short: "Compute the distance transform of a stack of slice images",
		Long: "Loads the images in <slice-dir> in numeric file name order as the bands of a volume, " +
			"thresholds them and writes the distance field as a raw file and optionally as rendered slices.",
		Args: cobra.ExactArgs(1),
		RunE: runTransform,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&tfOutputDir, "output-dir", "o", "", "output directory")
	cmd.Flags().StringVarP(&tfKind, "kind", "k", "", "output kind: short | float")
	cmd.Flags().Float64Var(&tfThreshold, "threshold", 0, "foreground threshold in [0, 1]")
	cmd.Flags().BoolVar(&tfInvert, "invert", false, "treat dark voxels as foreground")
	cmd.Flags().Float64Var(&tfSmooth, "smooth", 0, "Gaussian sigma applied before thresholding (0 = off)")
	cmd.Flags().BoolVar(&tfNoRaw, "no-raw", false, "do not write the raw distance field")
	cmd.Flags().BoolVar(&tfSaveSlices, "save-slices", false, "render distance slices")
	cmd.Flags().StringSliceVar(&tfAxes, "axes", nil, "axes to render: x,y,z")
	cmd.Flags().StringVar(&tfFormat, "format", "", "rendered slice format: png | tif | jpg")
	cmd.Flags().BoolVar(&tfVerify, "verify", false, "check the result against an exact kd-tree search")
}

func runTransform(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Output.Dir = tfOutputDir
	}
	if flags.Changed("kind") {
		cfg.Transform.OutputKind = tfKind
	}
	if flags.Changed("threshold") {
		cfg.Input.Threshold = tfThreshold
	}
	if flags.Changed("invert") {
		cfg.Input.Invert = tfInvert
	}
	if flags.Changed("smooth") {
		cfg.Input.Smooth = tfSmooth
	}
	if flags.Changed("no-raw") {
		cfg.Output.SaveRaw = !tfNoRaw
	}
	if flags.Changed("save-slices") {
		cfg.Output.SaveSlices = tfSaveSlices
	}
	if flags.Changed("axes") {
		cfg.Output.SliceAxes = tfAxes
	}
	if flags.Changed("format") {
		cfg.Output.Format = tfFormat
	}
	if flags.Changed("verify") {
		cfg.Verify.Enabled = tfVerify
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	params, err := pipeline.ParamsFromConfig(cfg, args[0])
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Output.Verbose)

	start := time.Now()
	p := pipeline.New(params, logger)
	if err := p.Process(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	metrics := p.GetMetrics()
	field := p.Field()
	fmt.Fprintf(out, "volume: %d bands x %d rows x %d columns (%s)\n",
		field.Bands, field.Rows, field.Columns, field.Kind)
	fmt.Fprintf(out, "transform: %.3fs, total: %.3fs\n",
		metrics.TransformTime.Seconds(), time.Since(start).Seconds())
	fmt.Fprintf(out, "summary: %s\n", metrics.Summary)
	if metrics.Verified {
		fmt.Fprintf(out, "verified: %d voxels, rmse=%.4f max error=%.4f\n",
			metrics.Comparison.Compared, metrics.Comparison.RMSE, metrics.Comparison.MaxAbsError)
	}
	if metrics.RawFile != "" {
		fmt.Fprintf(out, "raw field: %s\n", metrics.RawFile)
	}
	return nil
}
