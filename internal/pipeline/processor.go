// Package pipeline orchestrates the staged run: classify issue slides,
// render them to images, analyze them with the vision model, file tickets
// and attach the images. Stages run strictly in order; within the analyze
// and file stages items run in parallel.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"deck2jira/internal/common/config"
	"deck2jira/internal/common/logger"
	"deck2jira/internal/common/metrics"
	"deck2jira/internal/common/observability"
	"deck2jira/internal/deck"
	"deck2jira/internal/models"
)

// Collaborator interfaces, one per stage. The concrete implementations live
// in their own packages; the processor only needs the stage contracts.
type (
	DeckOpener interface {
		Open(path string) (*deck.Deck, error)
	}

	SlideClassifier interface {
		FindIssueSlides(d *deck.Deck) []models.Detection
	}

	PDFConverter interface {
		ToPDF(ctx context.Context, pptxPath, outputDir string) (string, error)
	}

	SlideExtractor interface {
		ExtractSlides(ctx context.Context, pdfPath string, slideNumbers []int, outputDir string) (map[int]string, error)
	}

	SlideAnalyzer interface {
		AnalyzeBatch(ctx context.Context, images map[int]string, projects map[int]string) ([]models.SlideAnalysis, error)
	}

	TicketClient interface {
		CreateIssuesBatch(ctx context.Context, analyses []models.SlideAnalysis) ([]models.SlideAnalysis, error)
		AttachImagesBatch(ctx context.Context, analyses []models.SlideAnalysis, slideImages map[int]string)
	}
)

// Processor drives one full run over a presentation file.
type Processor struct {
	cfg        *config.Config
	opener     DeckOpener
	classifier SlideClassifier
	converter  PDFConverter
	extractor  SlideExtractor
	analyzer   SlideAnalyzer
	tickets    TicketClient
	obs        *observability.Observability
	logger     logger.Logger
}

func NewProcessor(
	cfg *config.Config,
	opener DeckOpener,
	classifier SlideClassifier,
	converter PDFConverter,
	extractor SlideExtractor,
	analyzer SlideAnalyzer,
	tickets TicketClient,
	obs *observability.Observability,
	log logger.Logger,
) *Processor {
	return &Processor{
		cfg:        cfg,
		opener:     opener,
		classifier: classifier,
		converter:  converter,
		extractor:  extractor,
		analyzer:   analyzer,
		tickets:    tickets,
		obs:        obs,
		logger:     log,
	}
}

// Process runs the whole pipeline for one presentation and returns the
// final analysis records. In dry-run mode the run stops after analysis and
// no ticket store calls are made. The scratch workspace is removed on every
// exit path unless debug mode asks to keep it.
func (p *Processor) Process(ctx context.Context, pptxPath string) ([]models.SlideAnalysis, error) {
	runID := uuid.New().String()
	log := p.logger.With(map[string]interface{}{"runId": runID})

	workdir, cleanup, err := p.makeWorkdir(pptxPath, log)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// Stage 1: classify.
	start := time.Now()
	d, err := p.opener.Open(pptxPath)
	if err != nil {
		return nil, err
	}
	detections := p.classifier.FindIssueSlides(d)
	p.recordStage(ctx, "classify", start)

	if len(detections) == 0 {
		log.Info("no issue slides found", map[string]interface{}{"slides": len(d.Slides)})
		return nil, nil
	}

	slideNumbers := make([]int, 0, len(detections))
	projects := make(map[int]string, len(detections))
	for _, det := range detections {
		slideNumbers = append(slideNumbers, det.SlideNumber)
		projects[det.SlideNumber] = det.ProjectKey
	}
	log.Info("found issue slides", map[string]interface{}{
		"count":  len(slideNumbers),
		"slides": slideNumbers,
	})

	// Stage 2: render.
	start = time.Now()
	pdfPath, err := p.converter.ToPDF(ctx, pptxPath, workdir)
	if err != nil {
		return nil, err
	}
	slideImages, err := p.extractor.ExtractSlides(ctx, pdfPath, slideNumbers, workdir)
	if err != nil {
		return nil, err
	}
	p.recordStage(ctx, "render", start)

	// Stage 3: analyze.
	start = time.Now()
	analyses, err := p.analyzer.AnalyzeBatch(ctx, slideImages, projects)
	if err != nil {
		return nil, err
	}
	p.recordStage(ctx, "analyze", start)

	if p.cfg.Processing.DryRun {
		log.Info("dry run, skipping ticket creation", map[string]interface{}{
			"analyses": len(analyses),
		})
		return analyses, nil
	}
	if len(analyses) == 0 {
		return analyses, nil
	}

	// Stage 4: file tickets, then attach images.
	start = time.Now()
	analyses, err = p.tickets.CreateIssuesBatch(ctx, analyses)
	if err != nil {
		return nil, err
	}
	p.tickets.AttachImagesBatch(ctx, analyses, slideImages)
	p.recordStage(ctx, "file", start)

	for _, analysis := range analyses {
		status := "created"
		if analysis.JiraKey == "" {
			status = "failed"
		}
		if p.obs != nil {
			p.obs.RecordSlideProcessed(ctx, status)
		}
	}

	return analyses, nil
}

// makeWorkdir creates the scratch directory beside the presentation, named
// after it so a debug run is easy to find. The cleanup func is a no-op in
// debug mode.
func (p *Processor) makeWorkdir(pptxPath string, log logger.Logger) (string, func(), error) {
	stem := strings.TrimSuffix(filepath.Base(pptxPath), filepath.Ext(pptxPath))
	workdir := filepath.Join(filepath.Dir(pptxPath), stem+"_debug")
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return "", nil, err
	}
	log.Info("created workspace", map[string]interface{}{"dir": workdir})

	cleanup := func() {
		if p.cfg.Processing.Debug {
			log.Info("debug mode, keeping workspace", map[string]interface{}{"dir": workdir})
			return
		}
		if err := os.RemoveAll(workdir); err != nil {
			log.Warn("workspace cleanup failed", map[string]interface{}{
				"dir":   workdir,
				"error": err.Error(),
			})
			return
		}
		log.Info("cleaned up workspace", map[string]interface{}{"dir": workdir})
	}
	return workdir, cleanup, nil
}

func (p *Processor) recordStage(ctx context.Context, stage string, start time.Time) {
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if p.obs != nil {
		p.obs.RecordStageDuration(ctx, stage, elapsed)
	}
	p.logger.Debug("stage complete", map[string]interface{}{
		"stage":    stage,
		"duration": elapsed.String(),
	})
}
