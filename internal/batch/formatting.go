package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/stampo/internal/pipeline"
)

// FormatReport renders a report in the requested format ("text" or "json").
func FormatReport(report *pipeline.Report, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling report: %w", err)
		}
		return string(data), nil
	case "", "text":
		return formatTextReport(report), nil
	default:
		return "", fmt.Errorf("unsupported report format: %q", format)
	}
}

// formatTextReport renders a human-readable summary with one line per
// failure. Successes are summarized, not listed.
func formatTextReport(report *pipeline.Report) string {
	var b strings.Builder

	b.WriteString("Batch Report\n")
	b.WriteString("============\n")
	fmt.Fprintf(&b, "Items:     %d\n", report.Total())
	fmt.Fprintf(&b, "Succeeded: %d\n", report.Succeeded)
	fmt.Fprintf(&b, "Failed:    %d\n", report.Failed)
	if report.Cancelled > 0 {
		fmt.Fprintf(&b, "Cancelled: %d\n", report.Cancelled)
	}
	fmt.Fprintf(&b, "Duration:  %v\n", report.Duration().Round(time.Millisecond))
	if report.Partial {
		b.WriteString("Status:    PARTIAL (run was cancelled)\n")
	}

	if report.Failed > 0 || report.Cancelled > 0 {
		b.WriteString("\nFailures:\n")
		for _, r := range report.Results {
			if !r.Failed() {
				continue
			}
			label := r.Source
			if r.Page > 0 {
				label = fmt.Sprintf("%s#page%d", r.Source, r.Page)
			}
			fmt.Fprintf(&b, "  %-28s %s", label, r.Kind)
			if r.Message != "" {
				fmt.Fprintf(&b, ": %s", r.Message)
			}
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// SaveReport writes the formatted report to a file.
func SaveReport(report *pipeline.Report, format, path string) error {
	rendered, err := FormatReport(report, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o600); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	return nil
}

// FormatDryRun lists the items a batch run would process.
func FormatDryRun(items []pipeline.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dry run: %d item(s)\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "  %s -> %s\n", it.Label(), it.Output)
	}

	return b.String()
}
