package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/stampo/internal/pipeline"
	"github.com/MeKo-Tech/stampo/internal/testutil"
	"github.com/MeKo-Tech/stampo/internal/utils"
	"github.com/MeKo-Tech/stampo/internal/watermark"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	wmPath := filepath.Join(t.TempDir(), "wm.png")
	testutil.WriteWatermark(t, wmPath, 10, 10)

	srv, err := NewServer(Config{
		Host:        "localhost",
		Port:        8080,
		CORSOrigin:  "*",
		MaxUploadMB: 10,
		TimeoutSec:  30,
		PipelineConfig: pipeline.Config{
			Format:         utils.FormatJPEG,
			Quality:        85,
			MaxWidth:       1920,
			MaxHeight:      1080,
			PreserveAspect: true,
			WatermarkPath:  wmPath,
			Watermark: watermark.Options{
				Opacity:  0.5,
				Position: watermark.BottomRight,
				Scale:    0.2,
			},
			Workers: 2,
		},
	})
	require.NoError(t, err)
	return srv
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	mux := http.NewServeMux()
	newTestServer(t).SetupRoutes(mux)
	return mux
}

func uploadRequest(t *testing.T, url, field, filename string, img image.Image) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthHandler(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTransformHandler(t *testing.T) {
	mux := newTestMux(t)

	img := testutil.NewGradientImage(100, 80)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t, "/transform", "image", "test.png", img))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	decoded, format, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 80, decoded.Bounds().Dy())
}

func TestTransformHandlerDownscales(t *testing.T) {
	mux := newTestMux(t)

	img := testutil.NewGradientImage(2400, 1200)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t, "/transform", "image", "big.png", img))

	require.Equal(t, http.StatusOK, rec.Code)

	decoded, _, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1920, decoded.Bounds().Dx())
	assert.Equal(t, 960, decoded.Bounds().Dy())
}

func TestTransformHandlerMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transform", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTransformHandlerNoFile(t *testing.T) {
	mux := newTestMux(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("unrelated", "value"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/transform", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestTransformHandlerInvalidImage(t *testing.T) {
	mux := newTestMux(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "bad.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/transform", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestMetricsEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeFor(utils.FormatJPEG))
	assert.Equal(t, "image/png", contentTypeFor(utils.FormatPNG))
	assert.Equal(t, "image/webp", contentTypeFor(utils.FormatWebP))
}
