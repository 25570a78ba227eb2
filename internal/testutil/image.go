// Package testutil provides image fixtures and filesystem helpers shared by
// the package tests.
package testutil

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// NewTestImage creates an opaque raster filled with the given color.
func NewTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// NewGradientImage creates a raster with distinct pixel values so resampling
// and compositing effects are observable in tests.
func NewGradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// NewWatermarkImage creates a fully opaque single-color overlay suitable as a
// watermark fixture.
func NewWatermarkImage(width, height int) *image.NRGBA {
	return NewTestImage(width, height, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
}

// WriteImage encodes an image to disk, inferring the format from the
// extension, and fails the test on error.
func WriteImage(t *testing.T, path string, img image.Image) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, imaging.Save(img, path))
}

// WriteTestImage creates a gradient image file at path.
func WriteTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	WriteImage(t, path, NewGradientImage(width, height))
}

// WriteWatermark creates a watermark PNG at path.
func WriteWatermark(t *testing.T, path string, width, height int) {
	t.Helper()
	WriteImage(t, path, NewWatermarkImage(width, height))
}

// WriteCorruptImage writes a file with a valid image extension but garbage
// content.
func WriteCorruptImage(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))
}
