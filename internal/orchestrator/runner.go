// Package orchestrator drives one day of the story: it derives the phase
// from the date, gathers the month's history and audience steering, asks the
// generator for a continuation, and publishes everything that clears the
// safety gate. No state survives between runs; each invocation rebuilds its
// view of the story from the feed.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brendenrossin/collectivelore/internal/bluesky"
	"github.com/brendenrossin/collectivelore/internal/generate"
	"github.com/brendenrossin/collectivelore/internal/journal"
	"github.com/brendenrossin/collectivelore/internal/moderation"
	"github.com/brendenrossin/collectivelore/internal/story"
)

// Social is the slice of the Bluesky client the runner consumes.
type Social interface {
	RecentPosts(ctx context.Context, limit int) ([]bluesky.Post, error)
	Replies(ctx context.Context, postURI string) ([]bluesky.Reply, error)
	Publish(ctx context.Context, text string) (bluesky.PostRef, error)
	Metrics(ctx context.Context, postURI string) (bluesky.Engagement, error)
}

// Generator produces the day's continuation text.
type Generator interface {
	Generate(ctx context.Context, in generate.Input) string
}

// Composer builds the generation prompt.
type Composer interface {
	Compose(phase story.Phase, priorPosts []string, comment string) string
}

// Templates resolves the guideline text for a phase.
type Templates interface {
	Get(phase story.Phase) string
}

// Qualifier picks the steering comment.
type Qualifier interface {
	SelectBest(ctx context.Context, comments []moderation.Comment) (string, bool)
}

// Gate screens text before publication.
type Gate interface {
	IsSafe(ctx context.Context, text string) bool
}

// Recorder persists the engagement journal.
type Recorder interface {
	Record(entry journal.Entry) error
}

// Runner wires the day's pipeline together.
type Runner struct {
	social    Social
	generator Generator
	composer  Composer
	templates Templates
	qualifier Qualifier
	gate      Gate
	journal   Recorder
	logger    *zap.Logger

	schedule     story.Schedule
	monthMarker  string
	historyLimit int
	dryRun       bool
}

// RunnerConfig collects the Runner's collaborators and policy knobs.
type RunnerConfig struct {
	Social    Social
	Generator Generator
	Composer  Composer
	Templates Templates
	Qualifier Qualifier
	Gate      Gate
	Journal   Recorder
	Logger    *zap.Logger

	Schedule     story.Schedule
	MonthMarker  string
	HistoryLimit int

	// DryRun runs the full pipeline but skips publishing and journaling.
	DryRun bool
}

// NewRunner validates the config and builds a Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Social == nil {
		return nil, fmt.Errorf("a social client is required")
	}
	if cfg.Generator == nil || cfg.Composer == nil || cfg.Templates == nil {
		return nil, fmt.Errorf("generator, composer, and templates are required")
	}
	if cfg.Qualifier == nil || cfg.Gate == nil {
		return nil, fmt.Errorf("qualifier and safety gate are required")
	}
	if cfg.Journal == nil {
		return nil, fmt.Errorf("a journal is required")
	}
	if cfg.MonthMarker == "" {
		return nil, fmt.Errorf("a month marker is required")
	}
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("history limit must be positive")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Runner{
		social:       cfg.Social,
		generator:    cfg.Generator,
		composer:     cfg.Composer,
		templates:    cfg.Templates,
		qualifier:    cfg.Qualifier,
		gate:         cfg.Gate,
		journal:      cfg.Journal,
		logger:       cfg.Logger,
		schedule:     cfg.Schedule,
		monthMarker:  cfg.MonthMarker,
		historyLimit: cfg.HistoryLimit,
		dryRun:       cfg.DryRun,
	}, nil
}

// Run executes one day of the story for the given clock time.
func (r *Runner) Run(ctx context.Context, now time.Time) error {
	day := now.Day()
	totalDays := story.DaysInMonth(now)
	phase := r.schedule.PhaseFor(day, totalDays)

	logger := r.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Int("day", day),
		zap.Int("total_days", totalDays),
		zap.String("phase", string(phase)),
	)
	logger.Info("starting daily run")

	var queue []string
	var runErr error
	if phase == story.PhaseExposition && day == 1 {
		queue = append(queue, openingAnnouncement(totalDays))
		queue = append(queue, r.generateContinuation(ctx, phase, nil, ""))
	} else {
		items, err := r.continueStory(ctx, logger, phase, day, totalDays)
		if err != nil {
			// The day's continuation is lost, but announcements below
			// still go out.
			logger.Error("continuing the story failed", zap.Error(err))
			runErr = err
		}
		queue = append(queue, items...)
	}

	if phase == story.PhaseResolution && day == totalDays {
		queue = append(queue, closingAnnouncement(now.Month()))
	}

	r.publishAll(ctx, logger, now, queue)
	logger.Info("daily run complete", zap.Int("queued", len(queue)))
	return runErr
}

// continueStory handles every day after the month's opening: it reads the
// month's history and produces the next post, steered by the audience when
// a qualifying comment exists.
func (r *Runner) continueStory(ctx context.Context, logger *zap.Logger, phase story.Phase, day, totalDays int) ([]string, error) {
	posts, err := r.social.RecentPosts(ctx, r.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching post history: %w", err)
	}

	texts := make([]string, 0, len(posts))
	for _, p := range posts {
		texts = append(texts, p.Text)
	}
	window := story.MonthWindow(texts, r.monthMarker)

	// A month with no story posts yet restarts the arc mid-month.
	if len(window) == 0 {
		logger.Info("no story posts this month, opening the arc")
		return []string{
			openingAnnouncement(totalDays - day),
			r.generateContinuation(ctx, phase, nil, ""),
		}, nil
	}

	comment := r.steeringComment(ctx, logger, posts)
	return []string{r.generateContinuation(ctx, phase, window, comment)}, nil
}

// steeringComment finds the best qualifying audience reply on the newest
// story post. Any failure here degrades to autonomous continuation.
func (r *Runner) steeringComment(ctx context.Context, logger *zap.Logger, posts []bluesky.Post) string {
	var newestURI string
	for _, p := range posts {
		if !strings.HasPrefix(p.Text, r.monthMarker) {
			newestURI = p.URI
			break
		}
	}
	if newestURI == "" {
		return ""
	}

	replies, err := r.social.Replies(ctx, newestURI)
	if err != nil {
		logger.Warn("fetching replies failed, continuing without a comment", zap.Error(err))
		return ""
	}

	comments := make([]moderation.Comment, 0, len(replies))
	for _, reply := range replies {
		comments = append(comments, moderation.Comment{
			Text:    reply.Text,
			Likes:   reply.LikeCount,
			Reposts: reply.RepostCount,
		})
	}

	comment, ok := r.qualifier.SelectBest(ctx, comments)
	if !ok {
		logger.Info("no qualifying comment, continuing autonomously")
		return ""
	}
	return comment
}

func (r *Runner) generateContinuation(ctx context.Context, phase story.Phase, window []string, comment string) string {
	return r.generator.Generate(ctx, generate.Input{
		Prompt:        r.composer.Compose(phase, window, comment),
		PriorText:     strings.Join(window, " "),
		Phase:         phase,
		PhaseTemplate: r.templates.Get(phase),
	})
}

// publishAll gates and publishes each queued item in order. Per-item
// failures never abort the rest of the batch.
func (r *Runner) publishAll(ctx context.Context, logger *zap.Logger, now time.Time, queue []string) {
	for i, text := range queue {
		itemLogger := logger.With(zap.Int("item", i+1))

		if !r.gate.IsSafe(ctx, text) {
			itemLogger.Warn("dropping unsafe item")
			continue
		}
		if r.dryRun {
			itemLogger.Info("dry run, skipping publish", zap.String("text", text))
			continue
		}

		ref, err := r.social.Publish(ctx, text)
		if err != nil {
			itemLogger.Error("publish failed", zap.Error(err))
			continue
		}
		itemLogger.Info("published", zap.String("uri", ref.URI))

		r.recordEngagement(ctx, itemLogger, now, ref, text)
	}
}

// recordEngagement journals the published item. Best-effort: journal and
// metrics failures are logged, never fatal.
func (r *Runner) recordEngagement(ctx context.Context, logger *zap.Logger, now time.Time, ref bluesky.PostRef, text string) {
	entry := journal.Entry{
		Timestamp: now,
		PostURI:   ref.URI,
		Text:      text,
	}

	eng, err := r.social.Metrics(ctx, ref.URI)
	if err != nil {
		logger.Warn("fetching engagement metrics failed", zap.Error(err))
	} else {
		entry.Likes = eng.Likes
		entry.Reposts = eng.Reposts
		entry.Replies = eng.Replies
	}

	if err := r.journal.Record(entry); err != nil {
		logger.Warn("journaling failed", zap.Error(err))
	}
}
