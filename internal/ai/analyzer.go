package ai

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"deck2jira/internal/common/config"
	commonerrors "deck2jira/internal/common/errors"
	"deck2jira/internal/common/logger"
	"deck2jira/internal/common/metrics"
	"deck2jira/internal/models"
)

// Analyzer fans slide images out to the vision provider with bounded
// concurrency and assembles the ordered analysis list.
type Analyzer struct {
	provider Provider
	cfg      *config.Config
	logger   logger.Logger
}

func NewAnalyzer(provider Provider, cfg *config.Config, log logger.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		cfg:      cfg,
		logger:   log.With(map[string]interface{}{"stage": "analyze"}),
	}
}

// AnalyzeBatch analyzes every slide image in parallel, capped at the
// configured concurrency. A failed slide is logged and dropped; the rest of
// the batch is unaffected. Results come back sorted by slide number so the
// run output is deterministic regardless of completion order.
//
// The project key for each record comes from the classification stage via
// projects, unless a run-level project override is set, which wins for every
// slide.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, images map[int]string, projects map[int]string) ([]models.SlideAnalysis, error) {
	a.logger.Info("starting parallel analysis", map[string]interface{}{
		"slides":        len(images),
		"maxConcurrent": a.cfg.Processing.MaxConcurrentRequests,
		"provider":      a.provider.Name(),
	})

	sem := semaphore.NewWeighted(int64(a.cfg.Processing.MaxConcurrentRequests))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []models.SlideAnalysis
	)

	for slideNum, imagePath := range images {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(slideNum int, imagePath string) {
			defer wg.Done()
			defer sem.Release(1)

			analysis, err := a.analyzeSlide(ctx, imagePath, slideNum)
			if err != nil {
				metrics.AnalysesFailed.Inc()
				a.logger.WithError(err).Error("slide analysis failed", map[string]interface{}{
					"slide": slideNum,
				})
				return
			}

			analysis.ProjectKey = a.resolveProject(slideNum, projects)
			metrics.AnalysesCompleted.Inc()

			mu.Lock()
			results = append(results, analysis)
			mu.Unlock()
		}(slideNum, imagePath)
	}

	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].SlideNumber < results[j].SlideNumber
	})

	a.logger.Info("analysis complete", map[string]interface{}{
		"succeeded": len(results),
		"failed":    len(images) - len(results),
	})
	return results, nil
}

func (a *Analyzer) analyzeSlide(ctx context.Context, imagePath string, slideNum int) (models.SlideAnalysis, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return models.SlideAnalysis{}, commonerrors.NewAnalysisFailedError(slideNum, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, config.GetDuration(a.cfg.Processing.RequestTimeout))
	defer cancel()

	content, err := a.provider.AnalyzeSlide(callCtx, image, slideNum)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.SlideAnalysis{}, commonerrors.NewAnalysisTimeoutError(slideNum)
		}
		return models.SlideAnalysis{}, commonerrors.NewAnalysisFailedError(slideNum, err)
	}

	return parseAnalysis(content, slideNum, a.logger), nil
}

// resolveProject applies the run-level override, when present, ahead of the
// rule-routed project.
func (a *Analyzer) resolveProject(slideNum int, projects map[int]string) string {
	if a.cfg.Jira.ProjectKey != "" {
		return a.cfg.Jira.ProjectKey
	}
	return projects[slideNum]
}
