package batch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/stampo/internal/pdf"
	"github.com/MeKo-Tech/stampo/internal/pipeline"
	"github.com/MeKo-Tech/stampo/internal/utils"
)

// buildItems expands discovered source files into pipeline work items. Raster
// files map to one item each; PDFs are expanded into one item per page. The
// returned slice preserves the (sorted) discovery order.
func buildItems(files []string, cfg *Config) []pipeline.Item {
	items := make([]pipeline.Item, 0, len(files))

	for _, file := range files {
		if cfg.ExpandPDFs && utils.IsPDF(file) {
			items = append(items, expandPDF(file, cfg)...)
			continue
		}

		items = append(items, pipeline.Item{
			Source: file,
			Output: outputPath(file, 0, cfg),
		})
	}

	return items
}

// expandPDF enumerates the pages of a PDF as independent items. When the page
// count cannot be determined up front, a single page-1 item is queued so the
// failure surfaces as a per-item result instead of aborting the batch.
func expandPDF(file string, cfg *Config) []pipeline.Item {
	count, err := pdf.PageCount(file)
	if err != nil || count < 1 {
		slog.Warn("could not determine PDF page count, queueing first page only",
			"file", file, "error", err)
		count = 1
	}

	items := make([]pipeline.Item, 0, count)
	for page := 1; page <= count; page++ {
		items = append(items, pipeline.Item{
			Source: file,
			Page:   page,
			Output: outputPath(file, page, cfg),
		})
	}
	return items
}

// outputPath maps a source file to its destination under OutputDir. The
// directory structure below InputRoot is mirrored; sources outside the root
// (or with no root configured) land flat in the output directory. PDF pages
// get a _page_NNN suffix so multi-page documents never collide.
func outputPath(source string, page int, cfg *Config) string {
	rel := filepath.Base(source)
	if cfg.InputRoot != "" {
		if r, err := filepath.Rel(cfg.InputRoot, source); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}

	ext := cfg.Pipeline.Format.Ext()
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	if page > 0 {
		stem = fmt.Sprintf("%s_page_%03d", stem, page)
	}

	return filepath.Join(cfg.OutputDir, stem+ext)
}
