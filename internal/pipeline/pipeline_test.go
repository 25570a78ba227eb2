package pipeline

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/stampo/internal/testutil"
	"github.com/MeKo-Tech/stampo/internal/utils"
	"github.com/MeKo-Tech/stampo/internal/watermark"
)

func testConfig() Config {
	return Config{
		Format:         utils.FormatJPEG,
		Quality:        85,
		MaxWidth:       1920,
		MaxHeight:      1080,
		PreserveAspect: true,
		Workers:        2,
	}
}

func TestConfigValidateClampsQuality(t *testing.T) {
	cfg := testConfig()
	cfg.Quality = 150
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Quality)

	cfg.Quality = -3
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Quality)
}

func TestConfigValidateRejectsBadBounds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWidth = 0
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.MaxHeight = -10
	assert.Error(t, cfg.Validate())
}

func TestConfigWorkerCount(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 4
	assert.Equal(t, 4, cfg.WorkerCount())

	cfg.Workers = 0
	assert.Positive(t, cfg.WorkerCount())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWidth = 0
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestNewMissingWatermarkIsFatal(t *testing.T) {
	cfg := testConfig()
	cfg.WatermarkPath = filepath.Join(t.TempDir(), "missing.png")
	cfg.Watermark = watermark.Options{Opacity: 0.3, Position: watermark.BottomRight, Scale: 0.2}

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watermark load failed")
}

func TestProcessItemSuccess(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "photo.png")
	testutil.WriteTestImage(t, src, 100, 80)

	p, err := New(testConfig())
	require.NoError(t, err)

	item := Item{Source: src, Output: filepath.Join(dir, "out", "photo.jpg")}
	res := p.ProcessItem(item)

	require.False(t, res.Failed(), "unexpected failure: %s", res.Message)
	assert.Equal(t, FailureNone, res.Kind)
	assert.Equal(t, src, res.Source)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 80, res.Height)
	assert.Positive(t, res.Bytes)

	fi, err := os.Stat(item.Output)
	require.NoError(t, err)
	assert.Equal(t, fi.Size(), res.Bytes)
}

func TestProcessItemDownscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.png")
	testutil.WriteTestImage(t, src, 3840, 2160)

	p, err := New(testConfig())
	require.NoError(t, err)

	res := p.ProcessItem(Item{Source: src, Output: filepath.Join(dir, "big.jpg")})

	require.False(t, res.Failed())
	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 1080, res.Height)
}

func TestProcessItemCorruptInput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	testutil.WriteCorruptImage(t, src)

	p, err := New(testConfig())
	require.NoError(t, err)

	res := p.ProcessItem(Item{Source: src, Output: filepath.Join(dir, "out.jpg")})

	assert.Equal(t, FailureUnsupportedInput, res.Kind)
	assert.NotEmpty(t, res.Message)
	assert.NoFileExists(t, filepath.Join(dir, "out.jpg"))
}

func TestProcessItemWriteFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	testutil.WriteTestImage(t, src, 20, 20)

	// A plain file where the output directory should be makes MkdirAll fail.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	p, err := New(testConfig())
	require.NoError(t, err)

	res := p.ProcessItem(Item{Source: src, Output: filepath.Join(blocker, "out.jpg")})
	assert.Equal(t, FailureWriteFailed, res.Kind)
}

func TestProcessItemEmptyOutputPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	testutil.WriteTestImage(t, src, 20, 20)

	p, err := New(testConfig())
	require.NoError(t, err)

	res := p.ProcessItem(Item{Source: src})
	assert.Equal(t, FailureWriteFailed, res.Kind)
}

func TestProcessItemIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	wmPath := filepath.Join(dir, "wm.png")
	testutil.WriteWatermark(t, wmPath, 10, 10)

	cfg := testConfig()
	cfg.WatermarkPath = wmPath
	cfg.Watermark = watermark.Options{Opacity: 0.5, Position: watermark.Tiled, Scale: 0.2}

	src := filepath.Join(dir, "photo.png")
	testutil.WriteTestImage(t, src, 2400, 1200)

	p, err := New(cfg)
	require.NoError(t, err)

	item := Item{Source: src, Output: filepath.Join(dir, "out", "photo.jpg")}
	first := p.ProcessItem(item)
	second := p.ProcessItem(item)

	require.False(t, first.Failed(), "unexpected failure: %s", first.Message)
	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, first.Width, second.Width)
	assert.Equal(t, first.Height, second.Height)
}

func TestProcessItemCorruptInputIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	testutil.WriteCorruptImage(t, src)

	p, err := New(testConfig())
	require.NoError(t, err)

	item := Item{Source: src, Output: filepath.Join(dir, "out.jpg")}
	first := p.ProcessItem(item)
	second := p.ProcessItem(item)

	assert.Equal(t, FailureUnsupportedInput, first.Kind)
	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, first.Message, second.Message)
}

func TestTransformAppliesWatermark(t *testing.T) {
	dir := t.TempDir()
	wmPath := filepath.Join(dir, "wm.png")
	testutil.WriteWatermark(t, wmPath, 10, 10)

	cfg := testConfig()
	cfg.WatermarkPath = wmPath
	cfg.Watermark = watermark.Options{Opacity: 1.0, Position: watermark.BottomRight, Scale: 0.2}

	p, err := New(cfg)
	require.NoError(t, err)

	base := testutil.NewTestImage(200, 100, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	out := p.Transform(base)

	// Scaled watermark is 40x40 anchored bottom-right.
	r, g, _, _ := out.At(180, 80).RGBA()
	assert.Greater(t, r, uint32(0xe000))
	assert.Less(t, g, uint32(0x2000))
}

func TestItemLabel(t *testing.T) {
	assert.Equal(t, "a.jpg", Item{Source: "a.jpg"}.Label())
	assert.Equal(t, "doc.pdf#page3", Item{Source: "doc.pdf", Page: 3}.Label())
}

func TestFailureKindStrings(t *testing.T) {
	assert.Equal(t, "none", FailureNone.String())
	assert.Equal(t, "unsupported_or_corrupt_input", FailureUnsupportedInput.String())
	assert.Equal(t, "write_failed", FailureWriteFailed.String())
	assert.Equal(t, "cancelled", FailureCancelled.String())

	text, err := FailureWriteFailed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "write_failed", string(text))
}
