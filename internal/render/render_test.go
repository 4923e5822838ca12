package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deck2jira/internal/common/config"
	commonerrors "deck2jira/internal/common/errors"
	"deck2jira/internal/common/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Processing: config.ProcessingConfig{
			MaxImageSizeMB:       2.0,
			LibreOfficeCommand:   "soffice",
			PdftoppmCommand:      "pdftoppm",
			PDFConversionTimeout: 120000,
		},
	}
}

// noisyJPEG writes a hard-to-compress image so quality stepping actually
// changes the file size.
func noisyJPEG(t *testing.T, dir string) string {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))

	path := filepath.Join(dir, "slide_1.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractor_BoundImageSize_StepsDownToFloor(t *testing.T) {
	cfg := testConfig()
	cfg.Processing.MaxImageSizeMB = 0.0001 // impossible target, must stop at the floor
	extractor := NewExtractor(cfg, logger.NewTestLogger(t))

	path := noisyJPEG(t, t.TempDir())
	before, err := os.Stat(path)
	require.NoError(t, err)

	quality, err := extractor.boundImageSize(path)
	require.NoError(t, err)

	// 85 -> 75 -> 65 is the last step above the floor of 60.
	assert.Equal(t, 65, quality)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, after.Size(), before.Size())
}

func TestExtractor_BoundImageSize_KeepsStartingQualityWhenSmall(t *testing.T) {
	extractor := NewExtractor(testConfig(), logger.NewTestLogger(t))

	path := noisyJPEG(t, t.TempDir())
	quality, err := extractor.boundImageSize(path)
	require.NoError(t, err)
	assert.Equal(t, defaultJPEGQuality, quality)
}

// stubPdftoppm writes a shell script that mimics pdftoppm's interface:
// page 7 exits nonzero, page 9 exits zero without writing output (what the
// real binary does for an out-of-range page), every other page copies a
// valid JPEG to the -singlefile prefix.
func stubPdftoppm(t *testing.T, dir, srcJPEG string) string {
	t.Helper()
	script := fmt.Sprintf(`#!/bin/sh
page="$2"
prefix="${10}"
if [ "$page" = "7" ]; then
  exit 99
fi
if [ "$page" = "9" ]; then
  exit 0
fi
cp %q "$prefix.jpg"
`, srcJPEG)
	path := filepath.Join(dir, "pdftoppm-stub")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestExtractor_ExtractSlides_SkipsFailedAndOutOfRangePages(t *testing.T) {
	dir := t.TempDir()
	srcJPEG := noisyJPEG(t, dir)
	pdfPath := filepath.Join(dir, "deck.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("fake pdf"), 0o644))

	cfg := testConfig()
	cfg.Processing.PdftoppmCommand = stubPdftoppm(t, dir, srcJPEG)
	extractor := NewExtractor(cfg, logger.NewTestLogger(t))

	outputDir := t.TempDir()
	images, err := extractor.ExtractSlides(context.Background(), pdfPath, []int{2, 7, 9}, outputDir)
	require.NoError(t, err)

	// Slide 7 failed and slide 9 was out of range; both are skipped with
	// no map entry while slide 2 still comes through.
	require.Len(t, images, 1)
	assert.Equal(t, filepath.Join(outputDir, "slide_2.jpg"), images[2])
	assert.FileExists(t, images[2])
	assert.NoFileExists(t, filepath.Join(outputDir, "slide_7.jpg"))
	assert.NoFileExists(t, filepath.Join(outputDir, "slide_9.jpg"))
}

func TestExtractor_ExtractSlides_MissingPDFIsFatal(t *testing.T) {
	extractor := NewExtractor(testConfig(), logger.NewNoOpLogger())

	_, err := extractor.ExtractSlides(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), []int{1}, t.TempDir())
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodePDFConversionFailed, stdErr.Code)
}

func TestConverter_ToPDF_MissingBinary(t *testing.T) {
	cfg := testConfig()
	cfg.Processing.LibreOfficeCommand = "definitely-not-a-real-binary"
	converter := NewConverter(cfg, logger.NewNoOpLogger())

	dir := t.TempDir()
	pptx := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(pptx, []byte("fake"), 0o644))

	_, err := converter.ToPDF(context.Background(), pptx, dir)
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeRendererNotFound, stdErr.Code)
}

func TestConverter_ToPDF_MissingPresentation(t *testing.T) {
	converter := NewConverter(testConfig(), logger.NewNoOpLogger())

	_, err := converter.ToPDF(context.Background(), filepath.Join(t.TempDir(), "absent.pptx"), t.TempDir())
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodePDFConversionFailed, stdErr.Code)
}
