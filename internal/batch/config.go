package batch

import (
	"time"

	"github.com/MeKo-Tech/stampo/internal/pipeline"
)

// Config holds all configuration for one batch run.
type Config struct {
	// InputRoot anchors relative output paths. When empty, the first
	// discovered directory argument is used, falling back to flat output.
	InputRoot string
	OutputDir string

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// ExpandPDFs enumerates PDF pages as independent work items.
	ExpandPDFs bool

	// Pipeline carries the transform parameters.
	Pipeline pipeline.Config

	// Report settings
	ReportFormat string
	ReportFile   string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration

	// DryRun only enumerates what would be processed.
	DryRun bool
}

// Result holds the outcome of a batch run together with run metadata.
type Result struct {
	Report      *pipeline.Report
	Items       []pipeline.Item
	WorkerCount int
}
