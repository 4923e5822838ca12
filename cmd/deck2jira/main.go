// Command deck2jira scans a presentation for issue-marker slides, renders
// them to images, extracts structured issue details with a vision model and
// files Jira tickets with the slide images attached.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"deck2jira/internal/ai"
	"deck2jira/internal/common/config"
	commonerrors "deck2jira/internal/common/errors"
	"deck2jira/internal/common/logger"
	"deck2jira/internal/common/observability"
	"deck2jira/internal/deck"
	"deck2jira/internal/jira"
	"deck2jira/internal/models"
	"deck2jira/internal/pipeline"
	"deck2jira/internal/render"
	"deck2jira/internal/rules"
)

var (
	flagDryRun        bool
	flagDebug         bool
	flagProjectKey    string
	flagMaxConcurrent int
	flagProvider      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deck2jira <presentation.pptx>",
		Short: "Convert presentation issue slides to Jira tickets using AI analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  run,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "d", false, "show what would be created without creating issues")
	rootCmd.Flags().BoolVarP(&flagDebug, "debug", "v", false, "keep temporary PDF and image files for debugging")
	rootCmd.Flags().StringVarP(&flagProjectKey, "project-key", "p", "", "Jira project key (overrides JIRA_PROJECT_KEY and disables rule-based routing)")
	rootCmd.Flags().IntVarP(&flagMaxConcurrent, "max-concurrent", "t", 0, "maximum concurrent API requests")
	rootCmd.Flags().StringVar(&flagProvider, "provider", "", "vision provider: openai or gemini")

	if err := rootCmd.Execute(); err != nil {
		var stdErr *commonerrors.StandardError
		if errors.As(err, &stdErr) {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", commonerrors.GetErrorCategory(stdErr.Code), err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	pptxPath := args[0]
	if _, err := os.Stat(pptxPath); err != nil {
		return fmt.Errorf("file not found: %s", pptxPath)
	}

	// A command-line project key must be visible to config validation, which
	// only requires a default routing project when no override is set.
	if flagProjectKey != "" {
		os.Setenv("JIRA_PROJECT_KEY", flagProjectKey)
	}
	if flagProvider != "" {
		os.Setenv("AI_PROVIDER", flagProvider)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Processing.DryRun = flagDryRun
	cfg.Processing.Debug = flagDebug
	if flagMaxConcurrent > 0 {
		cfg.Processing.MaxConcurrentRequests = flagMaxConcurrent
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	logRunMode(cfg, log)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	engine, err := rules.New(cfg.Rules)
	if err != nil {
		return err
	}
	provider, err := ai.NewProvider(ctx, cfg, log)
	if err != nil {
		return err
	}

	processor := pipeline.NewProcessor(
		cfg,
		deck.NewPPTXReader(),
		deck.NewClassifier(engine, log),
		render.NewConverter(cfg, log),
		render.NewExtractor(cfg, log),
		ai.NewAnalyzer(provider, cfg, log),
		jira.NewClient(cfg, log),
		obs,
		log,
	)

	start := time.Now()
	results, err := processor.Process(ctx, pptxPath)
	if err != nil {
		return err
	}

	printResults(results, cfg.Processing.DryRun)
	log.Info("processing complete", map[string]interface{}{
		"slides":   len(results),
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
	return nil
}

func logRunMode(cfg *config.Config, log logger.Logger) {
	switch {
	case flagProjectKey != "":
		log.Info("using manual project key from command line, rule-based routing disabled", map[string]interface{}{
			"project": flagProjectKey,
		})
	case cfg.Jira.ProjectKey != "":
		log.Info("using manual project key from environment, rule-based routing disabled", map[string]interface{}{
			"project": cfg.Jira.ProjectKey,
		})
	default:
		log.Info("no manual project key set, using rule-based routing", map[string]interface{}{
			"defaultProject": cfg.Rules.DefaultProject,
		})
	}

	if cfg.Processing.DryRun {
		log.Info("dry run mode, no issues will be created", nil)
	}
	if cfg.Processing.Debug {
		log.Info("debug mode, temporary files will be preserved", nil)
	}
}

func printResults(results []models.SlideAnalysis, dryRun bool) {
	for _, result := range results {
		fmt.Printf("\n%s\n", strings.Repeat("=", 60))
		fmt.Printf("Slide %d: %s\n", result.SlideNumber, result.Title)
		fmt.Printf("Project: %s\n", result.ProjectKey)
		fmt.Printf("Priority: %s\n", result.Priority)
		fmt.Printf("Type: %s\n", result.IssueType)
		if !dryRun && result.JiraKey != "" {
			fmt.Printf("Jira Issue: %s\n", result.JiraKey)
		}
		fmt.Printf("Description:\n%s\n", result.Description)
		fmt.Printf("Labels: %s\n", strings.Join(result.Labels, ", "))
	}
}
