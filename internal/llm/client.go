// Package llm provides a provider-neutral interface to text completion
// models, with implementations for OpenAI, Anthropic, and Gemini.
package llm

import "context"

// Request describes a single completion call.
type Request struct {
	// Prompt is the user-facing prompt text.
	Prompt string

	// System is an optional system instruction.
	System string

	// MaxTokens caps the completion length. Zero lets the provider
	// default apply.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float32
}

// Client is a text completion provider.
type Client interface {
	// Name identifies the provider for logs and arbitration.
	Name() string

	// Complete returns the model's completion for the request.
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to the Client interface. Useful in tests.
type ClientFunc struct {
	Label string
	Fn    func(ctx context.Context, req Request) (string, error)
}

func (c ClientFunc) Name() string { return c.Label }

func (c ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return c.Fn(ctx, req)
}
