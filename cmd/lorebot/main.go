package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/brendenrossin/collectivelore/internal/bluesky"
	"github.com/brendenrossin/collectivelore/internal/config"
	"github.com/brendenrossin/collectivelore/internal/generate"
	"github.com/brendenrossin/collectivelore/internal/journal"
	"github.com/brendenrossin/collectivelore/internal/llm"
	"github.com/brendenrossin/collectivelore/internal/moderation"
	"github.com/brendenrossin/collectivelore/internal/orchestrator"
	"github.com/brendenrossin/collectivelore/internal/prompt"
	"github.com/brendenrossin/collectivelore/internal/story"
)

const version = "1.0.0"

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lorebot",
	Short: "collectivelore - a crowd-steered serialized story bot for Bluesky",
	Long: `collectivelore tells one month-long story, one post per day.

Each day it derives the narrative phase from the calendar, reads the
month's posts back from the feed, lets the audience's best reply steer
the plot, and asks competing language models for the next beat. A judge
model arbitrates, a safety check screens every post, and engagement is
journaled after publishing.

Run it once per day from an external scheduler (cron, systemd timer).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// runCmd executes one day of the story
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run today's story pipeline and publish the result",
	Long: `Runs the full daily pipeline: phase computation, history fetch,
comment qualification, prompt composition, competing generation,
arbitration, safety gating, publishing, and engagement journaling.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDay(false)
	},
}

// previewCmd runs the pipeline without publishing
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Run today's pipeline without publishing anything",
	Long: `Runs the same pipeline as "run" but stops short of publishing:
generated posts are logged instead of posted, and nothing is journaled.
Useful for checking prompts and model output before going live.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDay(true)
	},
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lorebot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lorebot %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to the config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Overall run timeout")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDay(dryRun bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	runner, err := buildRunner(ctx, dryRun)
	if err != nil {
		return err
	}

	return runner.Run(ctx, time.Now())
}

// buildRunner wires the whole pipeline from configuration. Everything is
// constructed here once and injected; no package keeps global state.
func buildRunner(ctx context.Context, dryRun bool) (*orchestrator.Runner, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// The phase template mapping is load-bearing: refuse to run without it.
	templates, err := prompt.LoadTemplates(cfg.Story.TemplatesPath)
	if err != nil {
		return nil, err
	}

	generators := make([]llm.Client, 0, len(cfg.LLM.Generators))
	for _, name := range cfg.LLM.Generators {
		client, err := newProviderClient(ctx, cfg, name)
		if err != nil {
			return nil, fmt.Errorf("building generator %q: %w", name, err)
		}
		generators = append(generators, client)
	}

	judge, err := newProviderClient(ctx, cfg, cfg.LLM.Judge)
	if err != nil {
		return nil, fmt.Errorf("building judge %q: %w", cfg.LLM.Judge, err)
	}

	generator, err := generate.NewGenerator(generators, judge, logger,
		generate.WithSampling(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
		generate.WithCallTimeout(cfg.CallTimeout()),
	)
	if err != nil {
		return nil, err
	}

	social, err := bluesky.NewClient(bluesky.Config{
		Host:        cfg.Bluesky.Host,
		Handle:      cfg.Bluesky.Handle,
		AppPassword: cfg.Bluesky.AppPassword,
		Timeout:     cfg.BlueskyTimeout(),
	})
	if err != nil {
		return nil, err
	}

	return orchestrator.NewRunner(orchestrator.RunnerConfig{
		Social:       social,
		Generator:    generator,
		Composer:     prompt.NewComposer(templates, story.RecapSummarizer{}),
		Templates:    templates,
		Qualifier:    moderation.NewQualifier(judge, logger),
		Gate:         moderation.NewGate(judge, logger),
		Journal:      journal.New(cfg.Journal.Dir, cfg.Journal.RewardThreshold),
		Logger:       logger,
		Schedule:     story.DefaultSchedule(),
		MonthMarker:  cfg.Story.MonthMarker,
		HistoryLimit: cfg.Story.HistoryLimit,
		DryRun:       dryRun,
	})
}

func newProviderClient(ctx context.Context, cfg *config.Config, name string) (llm.Client, error) {
	provider, err := cfg.LLM.Provider(name)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(ctx, llm.Provider(name), llm.ProviderConfig{
		APIKey:  provider.APIKey,
		Model:   provider.Model,
		BaseURL: provider.BaseURL,
		Timeout: cfg.CallTimeout(),
	})
}
