package generate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brendenrossin/collectivelore/internal/llm"
	"github.com/brendenrossin/collectivelore/internal/story"
)

// Fallback is published when every model fails to produce a usable post.
const Fallback = "Oops! Something went wrong. Please try again later."

const (
	defaultMaxTokens   = 120
	defaultTemperature = 0.9
	defaultCallTimeout = 90 * time.Second
	arbiterMaxTokens   = 60
)

// Input carries everything the generator needs for one day's post.
type Input struct {
	// Prompt is the fully composed generation prompt.
	Prompt string

	// PriorText is the month's story so far, used for arbitration context.
	PriorText string

	// Phase is the current narrative phase.
	Phase story.Phase

	// PhaseTemplate is the guideline text for the phase.
	PhaseTemplate string
}

type candidate struct {
	source string
	text   string
}

// Generator fans a prompt out to its clients and picks one result.
type Generator struct {
	clients     []llm.Client
	judge       llm.Client
	logger      *zap.Logger
	maxTokens   int
	temperature float32
	callTimeout time.Duration
}

// Option adjusts generator behavior.
type Option func(*Generator)

// WithSampling overrides the token and temperature settings.
func WithSampling(maxTokens int, temperature float32) Option {
	return func(g *Generator) {
		g.maxTokens = maxTokens
		g.temperature = temperature
	}
}

// WithCallTimeout bounds each model call.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.callTimeout = d
	}
}

// NewGenerator creates a Generator over the given clients. A judge is
// required when more than one client competes.
func NewGenerator(clients []llm.Client, judge llm.Client, logger *zap.Logger, opts ...Option) (*Generator, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one generation client is required")
	}
	if len(clients) > 1 && judge == nil {
		return nil, fmt.Errorf("a judge client is required when multiple generators compete")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Generator{
		clients:     clients,
		judge:       judge,
		logger:      logger,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate produces the day's post text. Individual model failures are
// tolerated; only a total failure yields the fallback text.
func (g *Generator) Generate(ctx context.Context, in Input) string {
	// Each goroutine writes only its own slot.
	results := make([]string, len(g.clients))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, client := range g.clients {
		group.Go(func() error {
			callCtx, cancel := context.WithTimeout(groupCtx, g.callTimeout)
			defer cancel()

			text, err := client.Complete(callCtx, llm.Request{
				Prompt:      in.Prompt,
				MaxTokens:   g.maxTokens,
				Temperature: g.temperature,
			})
			if err != nil {
				g.logger.Warn("model call failed",
					zap.String("model", client.Name()),
					zap.Error(err))
				return nil
			}
			results[i] = text
			return nil
		})
	}
	// Goroutines never return errors; Wait just joins them.
	_ = group.Wait()

	var candidates []candidate
	for i, text := range results {
		if strings.TrimSpace(text) == "" {
			continue
		}
		candidates = append(candidates, candidate{
			source: g.clients[i].Name(),
			text:   TrimToSentence(text, PostLimit),
		})
	}

	switch len(candidates) {
	case 0:
		g.logger.Error("all model calls failed, falling back")
		return Fallback
	case 1:
		return candidates[0].text
	default:
		return g.arbitrate(ctx, in, candidates)
	}
}

// arbitrate asks the judge to pick between candidates. Any failure to get
// or parse a verdict falls back to the second candidate.
func (g *Generator) arbitrate(ctx context.Context, in Input, candidates []candidate) string {
	verdict, err := g.judge.Complete(ctx, llm.Request{
		Prompt:      arbitrationPrompt(in, candidates),
		MaxTokens:   arbiterMaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		g.logger.Warn("arbitration failed, using default candidate", zap.Error(err))
		return candidates[1].text
	}

	for i := range candidates {
		if strings.Contains(verdict, strconv.Itoa(i+1)) {
			g.logger.Info("arbitration verdict",
				zap.Int("choice", i+1),
				zap.String("model", candidates[i].source))
			return candidates[i].text
		}
	}

	g.logger.Warn("arbitration verdict had no candidate number",
		zap.String("verdict", verdict))
	return candidates[1].text
}

func arbitrationPrompt(in Input, candidates []candidate) string {
	var b strings.Builder

	b.WriteString("You are a creative storyteller and social media manager. ")
	b.WriteString("Choose the candidate post that best continues the story.\n\n")
	fmt.Fprintf(&b, "Story Context: %s\n\n", in.PriorText)
	fmt.Fprintf(&b, "Current Story Phase: %s\n\n", in.Phase)
	fmt.Fprintf(&b, "Phase Guidelines: %s\n\n", in.PhaseTemplate)
	b.WriteString("Judge the candidates on:\n")
	b.WriteString("1. Continuity with the story context.\n")
	b.WriteString("2. Fit with the current story phase.\n")
	b.WriteString("3. Engagement for a social media audience.\n")
	b.WriteString("4. Quality of the prose.\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "Candidate %d: %s\n", i+1, c.text)
	}
	b.WriteString("\nProvide your choice as the candidate number and a brief explanation.")

	return b.String()
}
