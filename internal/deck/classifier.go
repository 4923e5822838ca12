package deck

import (
	"deck2jira/internal/common/logger"
	"deck2jira/internal/common/metrics"
	"deck2jira/internal/models"
	"deck2jira/internal/rules"
)

// Classifier walks a deck in slide order and applies the rule engine to
// each slide's text.
type Classifier struct {
	engine *rules.Engine
	logger logger.Logger
}

func NewClassifier(engine *rules.Engine, log logger.Logger) *Classifier {
	return &Classifier{
		engine: engine,
		logger: log.With(map[string]interface{}{"stage": "classify"}),
	}
}

// FindIssueSlides returns the ordered detections for every slide the rule
// engine recognizes as an issue. Non-issue slides are skipped entirely and
// never reach a later stage.
func (c *Classifier) FindIssueSlides(d *Deck) []models.Detection {
	var detections []models.Detection
	for _, slide := range d.Slides {
		project, ok := c.engine.Classify(slide.Text())
		if !ok {
			continue
		}
		c.logger.Info("found issue slide", map[string]interface{}{
			"slide":   slide.Number,
			"project": project,
		})
		metrics.SlidesClassified.Inc()
		detections = append(detections, models.Detection{
			SlideNumber: slide.Number,
			ProjectKey:  project,
		})
	}
	return detections
}
