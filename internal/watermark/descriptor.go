package watermark

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Position identifies where the overlay is anchored on the canvas.
// Tiled replicates the overlay across the whole canvas instead.
type Position int

const (
	TopLeft Position = iota
	TopCenter
	TopRight
	CenterLeft
	Center
	CenterRight
	BottomLeft
	BottomCenter
	BottomRight
	Tiled
)

var positionNames = map[Position]string{
	TopLeft:      "top-left",
	TopCenter:    "top-center",
	TopRight:     "top-right",
	CenterLeft:   "center-left",
	Center:       "center",
	CenterRight:  "center-right",
	BottomLeft:   "bottom-left",
	BottomCenter: "bottom-center",
	BottomRight:  "bottom-right",
	Tiled:        "tiled",
}

// ParsePosition maps a position name to a Position. Matching is
// case-insensitive.
func ParsePosition(s string) (Position, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range positionNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown watermark position: %q", s)
}

func (p Position) String() string {
	if n, ok := positionNames[p]; ok {
		return n
	}
	return "unknown"
}

// fractions returns the normalized anchor point as fractions of the canvas
// minus the watermark footprint.
func (p Position) fractions() (fx, fy float64) {
	switch p {
	case TopLeft:
		return 0, 0
	case TopCenter:
		return 0.5, 0
	case TopRight:
		return 1, 0
	case CenterLeft:
		return 0, 0.5
	case Center:
		return 0.5, 0.5
	case CenterRight:
		return 1, 0.5
	case BottomLeft:
		return 0, 1
	case BottomCenter:
		return 0.5, 1
	default:
		return 1, 1
	}
}

// Options control placement, size and translucency of the overlay.
type Options struct {
	// Opacity is the global alpha multiplier in [0,1]. Zero hides the
	// watermark entirely.
	Opacity float64

	// Position is the anchor, or Tiled for the repeating pattern.
	Position Position

	// Scale sizes the overlay as a fraction of the canvas width, in (0,1].
	Scale float64

	// TileSpacing is the stride between tiles as a multiple of the tile
	// size. Only used with Tiled.
	TileSpacing float64

	// TileOpacityFactor further reduces opacity in tiled mode, in (0,1].
	TileOpacityFactor float64
}

// Validate checks option ranges, applying tiled-mode defaults for the
// zero-valued stride and opacity factor.
func (o *Options) Validate() error {
	if o.Opacity < 0 || o.Opacity > 1 {
		return fmt.Errorf("watermark opacity %v outside [0,1]", o.Opacity)
	}
	if o.Scale <= 0 || o.Scale > 1 {
		return fmt.Errorf("watermark scale %v outside (0,1]", o.Scale)
	}
	if o.TileSpacing == 0 {
		o.TileSpacing = 1.5
	}
	if o.TileSpacing < 1 {
		return fmt.Errorf("tile spacing %v must be >= 1", o.TileSpacing)
	}
	if o.TileOpacityFactor == 0 {
		o.TileOpacityFactor = 0.7
	}
	if o.TileOpacityFactor < 0 || o.TileOpacityFactor > 1 {
		return fmt.Errorf("tile opacity factor %v outside (0,1]", o.TileOpacityFactor)
	}
	return nil
}

// Descriptor is a decoded overlay plus its resolved placement parameters.
// It is built once per batch run and is safe for concurrent reads; nothing
// mutates it after construction.
type Descriptor struct {
	overlay *image.NRGBA
	opts    Options
}

// Load decodes the overlay image at path and prepares a Descriptor.
func Load(path string, opts Options) (*Descriptor, error) {
	if path == "" {
		return nil, errors.New("watermark path is empty")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading watermark %s: %w", path, err)
	}
	return New(img, opts)
}

// New prepares a Descriptor from an already decoded overlay.
func New(img image.Image, opts Options) (*Descriptor, error) {
	if img == nil {
		return nil, errors.New("watermark image is nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, errors.New("watermark image is empty")
	}
	return &Descriptor{overlay: imaging.Clone(img), opts: opts}, nil
}

// Options returns the resolved placement parameters.
func (d *Descriptor) Options() Options {
	return d.opts
}

// Bounds returns the decoded overlay dimensions.
func (d *Descriptor) Bounds() image.Rectangle {
	return d.overlay.Bounds()
}
