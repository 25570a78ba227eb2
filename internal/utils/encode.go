package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Format identifies one of the supported output encodings.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
	FormatWebP
)

// ParseFormat maps a user-supplied format name to a Format. Matching is
// case-insensitive and accepts the common "jpg" alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return 0, fmt.Errorf("unsupported output format: %q (expected jpeg, png or webp)", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	default:
		return ""
	}
}

// EncodeFunc serializes an image at the given quality (1-100).
type EncodeFunc func(w io.Writer, img image.Image, quality int) error

// encoders is the closed lookup table from format tag to encoder.
// Resolved once at configuration validation time via EncoderFor.
var encoders = map[Format]EncodeFunc{
	FormatJPEG: encodeJPEG,
	FormatPNG:  encodePNG,
	FormatWebP: encodeWebP,
}

// EncoderFor returns the encoder for the given format.
func EncoderFor(f Format) (EncodeFunc, error) {
	enc, ok := encoders[f]
	if !ok {
		return nil, fmt.Errorf("no encoder registered for format %v", f)
	}
	return enc, nil
}

// ClampQuality bounds a quality value to the valid 1-100 range.
func ClampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	// JPEG has no alpha channel; flatten translucent images onto white.
	flat := flattenAlpha(img)
	return imaging.Encode(w, flat, imaging.JPEG, imaging.JPEGQuality(ClampQuality(quality)))
}

func encodePNG(w io.Writer, img image.Image, quality int) error {
	// PNG is lossless; quality only selects the compression effort.
	enc := png.Encoder{CompressionLevel: pngLevel(ClampQuality(quality))}
	return enc.Encode(w, img)
}

func encodeWebP(w io.Writer, img image.Image, quality int) error {
	return webp.Encode(w, img, &webp.Options{Quality: float32(ClampQuality(quality))})
}

func pngLevel(quality int) png.CompressionLevel {
	switch {
	case quality <= 25:
		return png.BestSpeed
	case quality >= 75:
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}

// flattenAlpha composites an image over a white background if it carries
// transparency. Opaque images are returned as-is.
func flattenAlpha(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func isOpaque(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	return false
}
