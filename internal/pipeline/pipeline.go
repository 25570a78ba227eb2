// Package pipeline implements the per-item transform pipeline and the batch
// orchestrator that drives it across a bounded worker pool.
package pipeline

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/MeKo-Tech/stampo/internal/pdf"
	"github.com/MeKo-Tech/stampo/internal/utils"
	"github.com/MeKo-Tech/stampo/internal/watermark"
)

// Config holds the validated parameters governing one run. It is immutable
// once a Pipeline has been built from it.
type Config struct {
	// Format is the output encoding, resolved at configuration validation.
	Format utils.Format

	// Quality in [1,100]; out-of-range values are clamped, not rejected.
	Quality int

	// MaxWidth and MaxHeight bound the output dimensions. Larger images are
	// scaled down, never up.
	MaxWidth  int
	MaxHeight int

	// PreserveAspect keeps the aspect ratio when fitting (default true
	// upstream; a false value clamps each axis independently).
	PreserveAspect bool

	// WatermarkPath is the overlay image; empty disables watermarking.
	WatermarkPath string

	// Watermark placement parameters; ignored when WatermarkPath is empty.
	Watermark watermark.Options

	// Workers is the pool size; values < 1 default to the CPU count.
	Workers int
}

// Validate checks bounds and clamps quality. It must be called (directly or
// via New) before the configuration is used; an invalid configuration fails
// here and is never partially applied mid-run.
func (c *Config) Validate() error {
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return fmt.Errorf("invalid max dimensions %dx%d", c.MaxWidth, c.MaxHeight)
	}
	c.Quality = utils.ClampQuality(c.Quality)
	if _, err := utils.EncoderFor(c.Format); err != nil {
		return err
	}
	if c.WatermarkPath != "" {
		if err := c.Watermark.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// WorkerCount resolves the effective pool size.
func (c *Config) WorkerCount() int {
	if c.Workers >= 1 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Pipeline is the pure per-item transform: decode, composite, fit, encode.
// The watermark descriptor is prepared once at construction and shared
// read-only by all workers.
type Pipeline struct {
	cfg    Config
	wm     *watermark.Descriptor
	encode utils.EncodeFunc
}

// New validates the configuration and prepares the shared watermark
// descriptor. A watermark that cannot be loaded is fatal here, before any
// item is attempted.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	encode, err := utils.EncoderFor(cfg.Format)
	if err != nil {
		return nil, err
	}

	var wm *watermark.Descriptor
	if cfg.WatermarkPath != "" {
		wm, err = watermark.Load(cfg.WatermarkPath, cfg.Watermark)
		if err != nil {
			return nil, fmt.Errorf("watermark load failed: %w", err)
		}
	}

	return &Pipeline{cfg: cfg, wm: wm, encode: encode}, nil
}

// Config returns the validated configuration the pipeline was built from.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// ProcessItem runs one item through all four stages and returns its terminal
// Result. It never panics and never returns an error; all codec and I/O
// failures are converted into typed failure results.
func (p *Pipeline) ProcessItem(item Item) Result {
	img, err := p.decode(item)
	if err != nil {
		return failure(item, FailureUnsupportedInput, err)
	}

	out := p.Transform(img)

	size, err := p.writeOutput(item.Output, out)
	if err != nil {
		return failure(item, FailureWriteFailed, err)
	}

	b := out.Bounds()
	return Result{
		Source: item.Source,
		Page:   item.Page,
		Output: item.Output,
		Width:  b.Dx(),
		Height: b.Dy(),
		Bytes:  size,
	}
}

// Transform applies the composite and fit stages to an already decoded
// raster. Shared with the single-image front ends.
func (p *Pipeline) Transform(img image.Image) image.Image {
	img = p.wm.Apply(img)

	fitted, err := utils.FitWithin(img, p.cfg.MaxWidth, p.cfg.MaxHeight, p.cfg.PreserveAspect)
	if err != nil {
		// Bounds were validated at construction; a fit error means a
		// degenerate raster, which the encode stage will surface.
		return img
	}
	return fitted
}

// Encode serializes a transformed raster at the configured format/quality.
func (p *Pipeline) Encode(w io.Writer, img image.Image) error {
	return p.encode(w, img, p.cfg.Quality)
}

func (p *Pipeline) decode(item Item) (image.Image, error) {
	if item.Page > 0 {
		return pdf.ExtractPageImage(item.Source, item.Page)
	}
	img, _, err := utils.LoadImage(item.Source)
	return img, err
}

func (p *Pipeline) writeOutput(path string, img image.Image) (int64, error) {
	if path == "" {
		return 0, fmt.Errorf("empty output path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return 0, err
	}

	f, err := os.Create(path) //nolint:gosec // G304: Writing user-configured output path is expected
	if err != nil {
		return 0, err
	}

	if err := p.encode(f, img, p.cfg.Quality); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func failure(item Item, kind FailureKind, err error) Result {
	return Result{
		Source:  item.Source,
		Page:    item.Page,
		Output:  item.Output,
		Kind:    kind,
		Message: err.Error(),
	}
}
