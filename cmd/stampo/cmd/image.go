package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/stampo/internal/pipeline"
)

// imageCmd represents the image command for single-file processing.
var imageCmd = &cobra.Command{
	Use:   "image [files...]",
	Short: "Watermark and optimize individual images",
	Long: `Process one or more image files: composite a watermark, downscale to
the configured bounds and re-encode for the web.

Examples:
  stampo image photo.jpg -o out/
  stampo image photo.jpg -o out/ --watermark logo.png --opacity 0.5
  stampo image a.jpg b.png -o out/ --format webp`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runImageCommand,
}

func runImageCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	pCfg, err := configToPipelineConfig(cfg, cmd)
	if err != nil {
		return err
	}

	outputDir := cfg.Output.Dir
	if cmd.Flags().Changed("output") {
		outputDir, _ = cmd.Flags().GetString("output")
	}
	if outputDir == "" {
		return fmt.Errorf("no output directory configured (use --output)")
	}

	p, err := pipeline.New(pCfg)
	if err != nil {
		return err
	}

	var failed int
	for _, arg := range args {
		stem := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		item := pipeline.Item{
			Source: arg,
			Output: filepath.Join(outputDir, stem+pCfg.Format.Ext()),
		}

		res := p.ProcessItem(item)
		if res.Failed() {
			failed++
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", res.Source, res.Kind, res.Message)
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%dx%d, %d bytes)\n",
			res.Source, res.Output, res.Width, res.Height, res.Bytes)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d image(s) failed", failed, len(args))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(imageCmd)

	addPipelineFlags(imageCmd)
	imageCmd.Flags().StringP("output", "o", "", "output directory (required unless configured)")
}
