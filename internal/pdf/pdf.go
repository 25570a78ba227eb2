// Package pdf expands PDF documents into per-page rasters so each page can be
// transformed as an independent work item.
//
// pdfcpu extracts the raster images embedded in a page rather than rendering
// vector content. For scanned documents a page carries exactly one scan; when
// a page embeds several images the largest one is used.
package pdf

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCount returns the number of pages in a PDF file.
func PageCount(filename string) (int, error) {
	n, err := api.PageCountFile(filename)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", filename, err)
	}
	return n, nil
}

// ExtractPageImage extracts the raster content of one page (1-based).
func ExtractPageImage(filename string, page int) (image.Image, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}

	tempDir, err := os.MkdirTemp("", "pdf-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(filename, tempDir, []string{strconv.Itoa(page)}, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	img, err := largestExtractedImage(tempDir, page)
	if err != nil {
		return nil, fmt.Errorf("page %d of %s: %w", page, filename, err)
	}
	return img, nil
}

// largestExtractedImage walks the extraction directory and returns the
// biggest decoded image belonging to the given page.
func largestExtractedImage(dir string, page int) (image.Image, error) {
	var best image.Image
	bestArea := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		pageNum, perr := parsePageFromFilename(info.Name())
		if perr != nil || pageNum != page {
			return nil
		}

		img, derr := loadImageFile(path)
		if derr != nil {
			// Skip unreadable extraction artifacts.
			return nil
		}

		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, errors.New("no raster content found")
	}
	return best, nil
}

func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: Reading extracted temp file is expected
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	return img, err
}

// parsePageFromFilename extracts the page number from a pdfcpu extraction
// filename of the form <stem>_<page>_Im<idx>.<ext> or page_<page>_image_<idx>.<ext>.
func parsePageFromFilename(filename string) (int, error) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return 0, errors.New("invalid filename format")
	}

	// The page number is the second-to-last underscore field.
	for i := len(parts) - 2; i >= 0; i-- {
		if n, err := strconv.Atoi(parts[i]); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("no page number in filename")
}
