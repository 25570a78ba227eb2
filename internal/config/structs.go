package config

// Config represents the complete configuration for the stampo application.
// It covers all commands (batch, image, pdf, serve) and supports loading
// from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Input discovery
	Input InputConfig `mapstructure:"input" yaml:"input" json:"input"`

	// Output encoding and sizing
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Watermark placement
	Watermark WatermarkConfig `mapstructure:"watermark" yaml:"watermark" json:"watermark"`

	// Batch processing
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// PDF expansion
	PDF PDFConfig `mapstructure:"pdf" yaml:"pdf" json:"pdf"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// InputConfig controls source file discovery.
type InputConfig struct {
	Root            string   `mapstructure:"root" yaml:"root" json:"root"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	IncludePatterns []string `mapstructure:"include" yaml:"include" json:"include"`
	ExcludePatterns []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
}

// OutputConfig controls encoding, sizing and report output.
type OutputConfig struct {
	Dir            string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Format         string `mapstructure:"format" yaml:"format" json:"format"`
	Quality        int    `mapstructure:"quality" yaml:"quality" json:"quality"`
	MaxWidth       int    `mapstructure:"max_width" yaml:"max_width" json:"max_width"`
	MaxHeight      int    `mapstructure:"max_height" yaml:"max_height" json:"max_height"`
	PreserveAspect bool   `mapstructure:"preserve_aspect" yaml:"preserve_aspect" json:"preserve_aspect"`
	ReportFormat   string `mapstructure:"report_format" yaml:"report_format" json:"report_format"`
	ReportFile     string `mapstructure:"report_file" yaml:"report_file" json:"report_file"`
}

// WatermarkConfig controls the overlay. An empty path disables watermarking.
type WatermarkConfig struct {
	Path     string     `mapstructure:"path" yaml:"path" json:"path"`
	Opacity  float64    `mapstructure:"opacity" yaml:"opacity" json:"opacity"`
	Position string     `mapstructure:"position" yaml:"position" json:"position"`
	Scale    float64    `mapstructure:"scale" yaml:"scale" json:"scale"`
	Tile     TileConfig `mapstructure:"tile" yaml:"tile" json:"tile"`
}

// TileConfig controls the tiled watermark pattern.
type TileConfig struct {
	Spacing       float64 `mapstructure:"spacing" yaml:"spacing" json:"spacing"`
	OpacityFactor float64 `mapstructure:"opacity_factor" yaml:"opacity_factor" json:"opacity_factor"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers  int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Progress bool `mapstructure:"progress" yaml:"progress" json:"progress"`
	Quiet    bool `mapstructure:"quiet" yaml:"quiet" json:"quiet"`
}

// PDFConfig contains PDF expansion settings.
type PDFConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}
