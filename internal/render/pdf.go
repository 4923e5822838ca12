// Package render converts a presentation to a page-addressable PDF and
// extracts size-bounded JPEG images for selected slides. Both steps shell
// out to external binaries (LibreOffice, pdftoppm).
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"deck2jira/internal/common/config"
	commonerrors "deck2jira/internal/common/errors"
	"deck2jira/internal/common/logger"
)

// Converter runs LibreOffice headless to turn a .pptx into a PDF.
type Converter struct {
	cfg    *config.Config
	logger logger.Logger
}

func NewConverter(cfg *config.Config, log logger.Logger) *Converter {
	return &Converter{
		cfg:    cfg,
		logger: log.With(map[string]interface{}{"stage": "render"}),
	}
}

// ToPDF converts the presentation and returns the output PDF path. Any
// failure here (timeout, missing binary, nonzero exit, missing output) is
// fatal to the whole run.
func (c *Converter) ToPDF(ctx context.Context, pptxPath, outputDir string) (string, error) {
	absPath, err := filepath.Abs(pptxPath)
	if err != nil {
		return "", commonerrors.NewPDFConversionFailedError(err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return "", commonerrors.NewPDFConversionFailedError(fmt.Errorf("presentation not found: %s", absPath))
	}

	c.logger.Info("converting presentation to PDF", map[string]interface{}{
		"file": filepath.Base(absPath),
	})

	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(c.cfg.Processing.PDFConversionTimeout))
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.Processing.LibreOfficeCommand,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outputDir,
		absPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", commonerrors.NewPDFConversionTimeoutError()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", commonerrors.NewRendererNotFoundError(c.cfg.Processing.LibreOfficeCommand)
		}
		return "", commonerrors.NewPDFConversionFailedError(fmt.Errorf("%v: %s", err, stderr.String()))
	}

	stem := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	pdfPath := filepath.Join(outputDir, stem+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", commonerrors.NewPDFConversionFailedError(fmt.Errorf("output file not found: %s", pdfPath))
	}

	c.logger.Info("converted presentation", map[string]interface{}{"pdf": pdfPath})
	return pdfPath, nil
}
