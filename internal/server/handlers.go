package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/MeKo-Tech/stampo/internal/utils"
	"github.com/MeKo-Tech/stampo/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v, _, _ := version.Info()
	response := HealthResponse{
		Status:  "healthy",
		Version: v,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding health response: %v\n", err)
	}
}

// transformHandler watermarks and resizes a single uploaded image and
// streams the encoded result back.
func (s *Server) transformHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Set content length limit
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	uploadSizeBytes.Observe(float64(header.Size))

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		itemsProcessedTotal.WithLabelValues("unsupported_or_corrupt_input").Inc()
		return
	}

	start := time.Now()
	out := s.pipeline.Transform(img)

	var buf bytes.Buffer
	if err := s.pipeline.Encode(&buf, out); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Encoding failed: %v", err), http.StatusInternalServerError)
		itemsProcessedTotal.WithLabelValues("write_failed").Inc()
		return
	}
	transformDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	itemsProcessedTotal.WithLabelValues("none").Inc()

	w.Header().Set("Content-Type", contentTypeFor(s.pipeline.Config().Format))
	_, _ = w.Write(buf.Bytes())
}

// contentTypeFor maps an output format to its MIME type.
func contentTypeFor(f utils.Format) string {
	switch f {
	case utils.FormatPNG:
		return "image/png"
	case utils.FormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Log error, but can't send another response
		fmt.Fprintf(os.Stderr, "Error writing error response: %v\n", err)
	}
}
