package ai

import "context"

// Reasoner is the single-shot LLM reasoning backend used by the agents.
// No streaming or tool calling is required; a prompt goes in, text comes out.
type Reasoner interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}
