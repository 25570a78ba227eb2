package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/stampo/internal/pdf"
	"github.com/MeKo-Tech/stampo/internal/pipeline"
)

// pdfCmd represents the pdf command for per-page PDF processing.
var pdfCmd = &cobra.Command{
	Use:   "pdf [files...]",
	Short: "Extract PDF pages as watermarked, optimized images",
	Long: `Extract each page of the given PDF documents as an image, composite
a watermark, downscale to the configured bounds and re-encode for the web.
Page N of document.pdf becomes document_page_00N.<ext>.

Examples:
  stampo pdf document.pdf -o out/
  stampo pdf document.pdf -o out/ --pages 2-5 --watermark logo.png`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runPDFCommand,
}

func runPDFCommand(cmd *cobra.Command, args []string) error {
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

	pageRange, _ := cmd.Flags().GetString("pages")

	p, err := pipeline.New(pCfg)
	if err != nil {
		return err
	}

	var failed, total int
	for _, arg := range args {
		count, err := pdf.PageCount(arg)
		if err != nil {
			return fmt.Errorf("reading %s: %w", arg, err)
		}

		first, last := 1, count
		if pageRange != "" {
			first, last, err = parsePageRange(pageRange, count)
			if err != nil {
				return err
			}
		}

		stem := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		for page := first; page <= last; page++ {
			total++
			item := pipeline.Item{
				Source: arg,
				Page:   page,
				Output: filepath.Join(outputDir,
					fmt.Sprintf("%s_page_%03d%s", stem, page, pCfg.Format.Ext())),
			}

			res := p.ProcessItem(item)
			if res.Failed() {
				failed++
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s page %d: %s: %s\n",
					res.Source, res.Page, res.Kind, res.Message)
				continue
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s page %d -> %s (%dx%d, %d bytes)\n",
				res.Source, res.Page, res.Output, res.Width, res.Height, res.Bytes)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d page(s) failed", failed, total)
	}
	return nil
}

// parsePageRange parses "N" or "N-M" against the document's page count.
func parsePageRange(s string, count int) (int, int, error) {
	var first, last int

	if strings.Contains(s, "-") {
		if _, err := fmt.Sscanf(s, "%d-%d", &first, &last); err != nil {
			return 0, 0, fmt.Errorf("invalid page range %q", s)
		}
	} else {
		if _, err := fmt.Sscanf(s, "%d", &first); err != nil {
			return 0, 0, fmt.Errorf("invalid page range %q", s)
		}
		last = first
	}

	if first < 1 || last < first || last > count {
		return 0, 0, fmt.Errorf("page range %q out of bounds (document has %d page(s))", s, count)
	}
	return first, last, nil
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	addPipelineFlags(pdfCmd)
	pdfCmd.Flags().StringP("output", "o", "", "output directory (required unless configured)")
	pdfCmd.Flags().String("pages", "", "page or page range to extract (e.g. 3 or 2-5; default all)")
}
