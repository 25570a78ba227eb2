package config

import (
	"fmt"

	"github.com/MeKo-Tech/stampo/internal/pipeline"
	"github.com/MeKo-Tech/stampo/internal/utils"
	"github.com/MeKo-Tech/stampo/internal/watermark"
)

// Default returns the built-in configuration, matching the values set as
// viper defaults in the loader. Used by `stampo config init`.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Input: InputConfig{
			Recursive: true,
		},
		Output: OutputConfig{
			Format:         "jpeg",
			Quality:        85,
			MaxWidth:       1920,
			MaxHeight:      1080,
			PreserveAspect: true,
			ReportFormat:   "text",
		},
		Watermark: WatermarkConfig{
			Opacity:  0.3,
			Position: "bottom-right",
			Scale:    0.2,
			Tile: TileConfig{
				Spacing:       1.5,
				OpacityFactor: 0.7,
			},
		},
		Batch: BatchConfig{
			Workers:  0, // 0 = number of CPUs
			Progress: true,
		},
		PDF: PDFConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      120,
			ShutdownTimeout: 10,
		},
	}
}

// Validate checks all fields once at construction time. An invalid
// configuration fails fast here and is never partially applied mid-batch.
// Quality is clamped rather than rejected; format and position strings are
// resolved to their closed enums as part of validation.
func (c *Config) Validate() error {
	if _, err := utils.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	c.Output.Quality = utils.ClampQuality(c.Output.Quality)

	if c.Output.MaxWidth <= 0 || c.Output.MaxHeight <= 0 {
		return fmt.Errorf("invalid max dimensions %dx%d", c.Output.MaxWidth, c.Output.MaxHeight)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", c.Batch.Workers)
	}

	if c.Watermark.Path != "" {
		if _, err := watermark.ParsePosition(c.Watermark.Position); err != nil {
			return err
		}
		opts := c.watermarkOptions()
		if err := opts.Validate(); err != nil {
			return err
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	switch c.Output.ReportFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported report format: %q", c.Output.ReportFormat)
	}

	return nil
}

// OutputFormat returns the resolved output format enum. Validate must have
// accepted the configuration first.
func (c *Config) OutputFormat() utils.Format {
	f, _ := utils.ParseFormat(c.Output.Format)
	return f
}

// PipelineConfig maps the validated configuration onto the pipeline's own
// immutable config.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		Format:         c.OutputFormat(),
		Quality:        c.Output.Quality,
		MaxWidth:       c.Output.MaxWidth,
		MaxHeight:      c.Output.MaxHeight,
		PreserveAspect: c.Output.PreserveAspect,
		WatermarkPath:  c.Watermark.Path,
		Watermark:      c.watermarkOptions(),
		Workers:        c.Batch.Workers,
	}
}

func (c *Config) watermarkOptions() watermark.Options {
	pos, _ := watermark.ParsePosition(c.Watermark.Position)
	return watermark.Options{
		Opacity:           c.Watermark.Opacity,
		Position:          pos,
		Scale:             c.Watermark.Scale,
		TileSpacing:       c.Watermark.Tile.Spacing,
		TileOpacityFactor: c.Watermark.Tile.OpacityFactor,
	}
}
