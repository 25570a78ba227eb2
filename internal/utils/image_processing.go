package utils

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// FitWithin scales an image down so that neither dimension exceeds the given
// bounds. Images already within bounds are returned unchanged; the function
// never upscales.
//
// With preserveAspect the smaller of the two scale factors is applied to both
// axes. Without it each axis is clamped independently, distorting the image.
func FitWithin(img image.Image, maxWidth, maxHeight int, preserveAspect bool) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "fit", Err: errors.New("input image is nil")}
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, &ImageProcessingError{
			Operation: "fit",
			Err:       fmt.Errorf("invalid bounds: %dx%d", maxWidth, maxHeight),
		}
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth && height <= maxHeight {
		return img, nil
	}

	var newWidth, newHeight int
	if preserveAspect {
		scaleX := float64(maxWidth) / float64(width)
		scaleY := float64(maxHeight) / float64(height)
		scale := math.Min(scaleX, scaleY)

		newWidth = int(float64(width) * scale)
		newHeight = int(float64(height) * scale)
	} else {
		newWidth = min(width, maxWidth)
		newHeight = min(height, maxHeight)
	}

	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos), nil
}
