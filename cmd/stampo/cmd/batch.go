package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/stampo/internal/batch"
	"github.com/MeKo-Tech/stampo/internal/config"
	"github.com/MeKo-Tech/stampo/internal/pipeline"
	"github.com/MeKo-Tech/stampo/internal/utils"
	"github.com/MeKo-Tech/stampo/internal/watermark"
)

// batchCmd represents the batch command for parallel image processing.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Watermark and optimize multiple images in parallel",
	Long: `Process multiple image files in parallel: composite a watermark,
downscale to the configured bounds and re-encode for the web. Directories are
walked; PDFs are expanded into one output image per page.

Supported inputs: JPEG, PNG, BMP, TIFF, PDF

Examples:
  stampo batch photos/ -o out/ --watermark logo.png
  stampo batch photos/ -o out/ --format webp --quality 80 --workers 8
  stampo batch a.jpg b.png -o out/ --position tiled --opacity 0.2
  stampo batch photos/ -o out/ --dry-run`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToPipelineConfig maps centralized configuration to pipeline.Config.
// CLI flags override config file values.
func configToPipelineConfig(cfg *config.Config, cmd *cobra.Command) (pipeline.Config, error) {
	pCfg := cfg.PipelineConfig()

	if cmd.Flags().Changed("format") {
		name, _ := cmd.Flags().GetString("format")
		f, err := utils.ParseFormat(name)
		if err != nil {
			return pCfg, err
		}
		pCfg.Format = f
	}
	if cmd.Flags().Changed("quality") {
		q, _ := cmd.Flags().GetInt("quality")
		pCfg.Quality = q
	}
	if cmd.Flags().Changed("max-width") {
		pCfg.MaxWidth, _ = cmd.Flags().GetInt("max-width")
	}
	if cmd.Flags().Changed("max-height") {
		pCfg.MaxHeight, _ = cmd.Flags().GetInt("max-height")
	}
	if cmd.Flags().Changed("no-preserve-aspect") {
		noPreserve, _ := cmd.Flags().GetBool("no-preserve-aspect")
		pCfg.PreserveAspect = !noPreserve
	}
	if cmd.Flags().Changed("workers") {
		pCfg.Workers, _ = cmd.Flags().GetInt("workers")
	}

	if cmd.Flags().Changed("watermark") {
		pCfg.WatermarkPath, _ = cmd.Flags().GetString("watermark")
	}
	if cmd.Flags().Changed("opacity") {
		pCfg.Watermark.Opacity, _ = cmd.Flags().GetFloat64("opacity")
	}
	if cmd.Flags().Changed("position") {
		name, _ := cmd.Flags().GetString("position")
		pos, err := watermark.ParsePosition(name)
		if err != nil {
			return pCfg, err
		}
		pCfg.Watermark.Position = pos
	}
	if cmd.Flags().Changed("scale") {
		pCfg.Watermark.Scale, _ = cmd.Flags().GetFloat64("scale")
	}
	if cmd.Flags().Changed("tile-spacing") {
		pCfg.Watermark.TileSpacing, _ = cmd.Flags().GetFloat64("tile-spacing")
	}
	if cmd.Flags().Changed("tile-opacity-factor") {
		pCfg.Watermark.TileOpacityFactor, _ = cmd.Flags().GetFloat64("tile-opacity-factor")
	}

	return pCfg, nil
}

// configToBatchConfig maps centralized configuration to batch.Config.
// CLI flags override config file values.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) (*batch.Config, error) {
	pCfg, err := configToPipelineConfig(cfg, cmd)
	if err != nil {
		return nil, err
	}

	batchConfig := &batch.Config{
		InputRoot:       cfg.Input.Root,
		OutputDir:       cfg.Output.Dir,
		Recursive:       cfg.Input.Recursive,
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		ExpandPDFs:      cfg.PDF.Enabled,
		Pipeline:        pCfg,
		ReportFormat:    cfg.Output.ReportFormat,
		ReportFile:      cfg.Output.ReportFile,
		ShowProgress:    cfg.Batch.Progress,
		Quiet:           cfg.Batch.Quiet,
	}

	if cmd.Flags().Changed("output") {
		batchConfig.OutputDir, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("recursive") {
		batchConfig.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if cmd.Flags().Changed("include") {
		batchConfig.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	}
	if cmd.Flags().Changed("exclude") {
		batchConfig.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	}
	if cmd.Flags().Changed("pdf") {
		batchConfig.ExpandPDFs, _ = cmd.Flags().GetBool("pdf")
	}
	if cmd.Flags().Changed("report-format") {
		batchConfig.ReportFormat, _ = cmd.Flags().GetString("report-format")
	}
	if cmd.Flags().Changed("report") {
		batchConfig.ReportFile, _ = cmd.Flags().GetString("report")
	}
	if cmd.Flags().Changed("progress") {
		batchConfig.ShowProgress, _ = cmd.Flags().GetBool("progress")
	}
	if cmd.Flags().Changed("quiet") {
		batchConfig.Quiet, _ = cmd.Flags().GetBool("quiet")
	}
	if cmd.Flags().Changed("dry-run") {
		batchConfig.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}

	if batchConfig.OutputDir == "" {
		return nil, fmt.Errorf("no output directory configured (use --output)")
	}

	return batchConfig, nil
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	batchConfig, err := configToBatchConfig(cfg, cmd)
	if err != nil {
		return err
	}

	// SIGINT/SIGTERM cancel cooperatively; in-flight items finish and the
	// partial report is still printed.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := batch.ProcessBatch(ctx, args, batchConfig)
	if err != nil {
		return err
	}

	if batchConfig.DryRun {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), batch.FormatDryRun(result.Items))
		return nil
	}

	rendered, err := batch.FormatReport(result.Report, batchConfig.ReportFormat)
	if err != nil {
		return err
	}
	if !batchConfig.Quiet {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	}

	if batchConfig.ReportFile != "" {
		if err := batch.SaveReport(result.Report, batchConfig.ReportFormat, batchConfig.ReportFile); err != nil {
			return err
		}
		if !batchConfig.Quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", batchConfig.ReportFile)
		}
	}

	if result.Report.Partial {
		return fmt.Errorf("batch cancelled after %v: %d of %d item(s) completed",
			time.Since(start).Round(time.Millisecond),
			result.Report.Succeeded+result.Report.Failed, result.Report.Total())
	}

	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addPipelineFlags(batchCmd)
	batchCmd.Flags().StringP("output", "o", "", "output directory (required unless configured)")
	batchCmd.Flags().BoolP("recursive", "r", true, "process directories recursively")
	batchCmd.Flags().StringSlice("include", nil, "only process files matching these glob patterns")
	batchCmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
	batchCmd.Flags().Bool("pdf", true, "expand PDF files into per-page images")
	batchCmd.Flags().Int("workers", 0, "number of parallel workers (0 = number of CPUs)")
	batchCmd.Flags().String("report-format", "text", "report format: text or json")
	batchCmd.Flags().String("report", "", "write the batch report to this file")
	batchCmd.Flags().Bool("progress", true, "show a progress bar")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress progress and report output")
	batchCmd.Flags().Bool("dry-run", false, "list the items that would be processed and exit")
}

// addPipelineFlags registers the transform flags shared by batch, image and
// pdf.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "jpeg", "output format: jpeg, png or webp")
	cmd.Flags().Int("quality", 85, "encoding quality (1-100)")
	cmd.Flags().Int("max-width", 1920, "maximum output width in pixels")
	cmd.Flags().Int("max-height", 1080, "maximum output height in pixels")
	cmd.Flags().Bool("no-preserve-aspect", false, "clamp each axis independently instead of keeping aspect ratio")
	cmd.Flags().StringP("watermark", "w", "", "watermark image path (empty disables watermarking)")
	cmd.Flags().Float64("opacity", 0.3, "watermark opacity (0-1)")
	cmd.Flags().String("position", "bottom-right",
		"watermark position: top-left, top-right, center, bottom-left, bottom-right or tiled")
	cmd.Flags().Float64("scale", 0.2, "watermark width as a fraction of the image width (0-1)")
	cmd.Flags().Float64("tile-spacing", 1.5, "tile stride as a multiple of the watermark size")
	cmd.Flags().Float64("tile-opacity-factor", 0.7, "opacity multiplier applied in tiled mode")
}
