package watermark

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Apply composites the watermark onto img and returns the result. The input
// image is never modified. A nil descriptor or zero opacity is a no-op
// pass-through; callers get the original image back untouched.
//
// Blending is linear "over" compositing: the overlay's own per-pixel alpha is
// multiplied by the global opacity before blending, uniformly in both the
// anchored and tiled paths.
func (d *Descriptor) Apply(img image.Image) image.Image {
	if d == nil || d.opts.Opacity == 0 {
		return img
	}

	canvas := img.Bounds()
	tile := d.scaledOverlay(canvas.Dx())
	if tile == nil {
		return img
	}

	base := imaging.Clone(img)
	if d.opts.Position == Tiled {
		return d.applyTiled(base, tile)
	}
	return d.applyAnchored(base, tile)
}

// scaledOverlay resizes the overlay to the configured fraction of the canvas
// width, preserving the overlay's aspect ratio. Returns nil if the result
// would be degenerate.
func (d *Descriptor) scaledOverlay(canvasWidth int) *image.NRGBA {
	ob := d.overlay.Bounds()
	w := int(math.Round(float64(canvasWidth) * d.opts.Scale))
	if w < 1 {
		w = 1
	}
	h := int(math.Round(float64(w) * float64(ob.Dy()) / float64(ob.Dx())))
	if h < 1 {
		h = 1
	}
	return imaging.Resize(d.overlay, w, h, imaging.Lanczos)
}

func (d *Descriptor) applyAnchored(base *image.NRGBA, wm *image.NRGBA) *image.NRGBA {
	cw, ch := base.Bounds().Dx(), base.Bounds().Dy()
	ww, wh := wm.Bounds().Dx(), wm.Bounds().Dy()

	fx, fy := d.opts.Position.fractions()
	x := int(math.Round(fx * float64(cw-ww)))
	y := int(math.Round(fy * float64(ch-wh)))

	return imaging.Overlay(base, wm, image.Pt(x, y), d.opts.Opacity)
}

func (d *Descriptor) applyTiled(base *image.NRGBA, tile *image.NRGBA) *image.NRGBA {
	cw, ch := base.Bounds().Dx(), base.Bounds().Dy()
	tw, th := tile.Bounds().Dx(), tile.Bounds().Dy()

	opacity := d.opts.Opacity * d.opts.TileOpacityFactor

	strideX := int(math.Round(float64(tw) * d.opts.TileSpacing))
	strideY := int(math.Round(float64(th) * d.opts.TileSpacing))
	if strideX < 1 {
		strideX = 1
	}
	if strideY < 1 {
		strideY = 1
	}

	out := base
	for row, y := 0, 0; y < ch; row, y = row+1, y+strideY {
		// Offset alternate rows by half a stride for denser coverage.
		offset := 0
		if row%2 == 1 {
			offset = strideX / 2
		}
		for x := offset; x < cw; x += strideX {
			out = imaging.Overlay(out, tile, image.Pt(x, y), opacity)
		}
	}
	return out
}
