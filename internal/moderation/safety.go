package moderation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brendenrossin/collectivelore/internal/llm"
)

// Gate screens generated posts before publication.
type Gate struct {
	judge  llm.Client
	logger *zap.Logger
}

// NewGate creates a Gate backed by the given judge.
func NewGate(judge llm.Client, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{judge: judge, logger: logger}
}

// IsSafe reports whether the text may be published. A judge failure blocks
// publication.
func (g *Gate) IsSafe(ctx context.Context, text string) bool {
	prompt := fmt.Sprintf("Is the following post appropriate for a general audience and free from offensive "+
		"or controversial content? Respond with 'Yes' or 'No'.\n\nPost: %q", text)

	if !askYesNo(ctx, g.judge, prompt) {
		g.logger.Warn("post rejected by safety gate", zap.String("post", text))
		return false
	}
	return true
}
