package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"deck2jira/internal/common/config"
	commonerrors "deck2jira/internal/common/errors"
	"deck2jira/internal/common/logger"
)

const (
	defaultJPEGQuality = 85
	minJPEGQuality     = 60
	qualityStep        = 10
	renderDPI          = 150
)

// Extractor pulls selected pages out of the rendered PDF as JPEG files.
type Extractor struct {
	cfg    *config.Config
	logger logger.Logger
}

func NewExtractor(cfg *config.Config, log logger.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: log.With(map[string]interface{}{"stage": "render"}),
	}
}

// ExtractSlides renders each requested slide number to a size-bounded JPEG
// and returns slide number -> image path. Per-slide failures (page out of
// range, single-page extraction error) are logged and the slide is dropped
// from the map; downstream stages treat "not present" as "skip". Only a
// missing PDF or a missing pdftoppm binary fails the whole step.
func (e *Extractor) ExtractSlides(ctx context.Context, pdfPath string, slideNumbers []int, outputDir string) (map[int]string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, commonerrors.NewPDFConversionFailedError(fmt.Errorf("pdf not found: %s", pdfPath))
	}

	slideImages := make(map[int]string)
	for _, slideNum := range slideNumbers {
		imgPath, err := e.extractSingleSlide(ctx, pdfPath, slideNum, outputDir)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return nil, commonerrors.NewRendererNotFoundError(e.cfg.Processing.PdftoppmCommand)
			}
			e.logger.WithError(commonerrors.NewSlideExtractionError(slideNum, err)).Warn("skipping slide", map[string]interface{}{
				"slide": slideNum,
			})
			continue
		}
		slideImages[slideNum] = imgPath
	}

	return slideImages, nil
}

func (e *Extractor) extractSingleSlide(ctx context.Context, pdfPath string, slideNum int, outputDir string) (string, error) {
	prefix := filepath.Join(outputDir, fmt.Sprintf("slide_%d", slideNum))

	cmd := exec.CommandContext(ctx, e.cfg.Processing.PdftoppmCommand,
		"-f", strconv.Itoa(slideNum),
		"-l", strconv.Itoa(slideNum),
		"-jpeg",
		"-r", strconv.Itoa(renderDPI),
		"-singlefile",
		pdfPath,
		prefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("pdftoppm: %v: %s", err, stderr.String())
	}

	imgPath := prefix + ".jpg"
	if _, err := os.Stat(imgPath); err != nil {
		// pdftoppm exits zero but writes nothing for out-of-range pages.
		return "", fmt.Errorf("page %d not found in PDF", slideNum)
	}

	quality, err := e.boundImageSize(imgPath)
	if err != nil {
		return "", err
	}

	info, _ := os.Stat(imgPath)
	e.logger.Info("extracted slide image", map[string]interface{}{
		"slide":   slideNum,
		"sizeMB":  fmt.Sprintf("%.1f", float64(info.Size())/(1024*1024)),
		"quality": quality,
	})
	return imgPath, nil
}

// boundImageSize re-encodes the JPEG starting at the default quality and
// steps down until the file fits the configured limit or the quality floor
// is reached; the floor result is accepted whatever its size.
func (e *Extractor) boundImageSize(imgPath string) (int, error) {
	maxBytes := int64(e.cfg.Processing.MaxImageSizeMB * 1024 * 1024)

	src, err := os.Open(imgPath)
	if err != nil {
		return 0, err
	}
	img, err := jpeg.Decode(src)
	src.Close()
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", imgPath, err)
	}

	quality := defaultJPEGQuality
	var buf bytes.Buffer
	for {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return 0, err
		}
		if int64(buf.Len()) <= maxBytes || quality-qualityStep < minJPEGQuality {
			break
		}
		quality -= qualityStep
	}

	if err := os.WriteFile(imgPath, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return quality, nil
}
