package agents

import (
	"context"
	"fmt"
	"time"

	"fincopilot/internal/adapters/ai"
	"fincopilot/internal/metrics"
	"fincopilot/pkg/logger"
)

// Agent is the execution contract shared by all analysis agents.
type Agent interface {
	Name() string
	Description() string
	Execute(ctx context.Context, task Task) (*Result, error)
}

// baseAgent carries the reasoning plumbing shared by all agents: the LLM
// client, bounded memory and logging. Rate limiting lives inside the
// reasoner itself.
type baseAgent struct {
	name        string
	description string
	reasoner    ai.Reasoner
	memory      *Memory
	log         *logger.Logger
}

func newBaseAgent(name, description string, reasoner ai.Reasoner, memoryLimit, memoryKeep int) baseAgent {
	return baseAgent{
		name:        name,
		description: description,
		reasoner:    reasoner,
		memory:      NewMemory(memoryLimit, memoryKeep),
		log:         logger.Get().With("agent", name),
	}
}

func (a *baseAgent) Name() string { return a.name }

func (a *baseAgent) Description() string { return a.description }

// Reason asks the LLM for an analysis. It never returns an error: any
// failure is folded into the returned text so a broken LLM degrades the
// narrative, not the computation around it.
func (a *baseAgent) Reason(ctx context.Context, taskPrompt, contextInfo string) string {
	prompt := fmt.Sprintf(
		"You are %s, a specialized financial analysis agent.\n%s\n\nContext:\n%s\n\nTask:\n%s\n\nProvide a detailed, professional analysis:",
		a.name, a.description, contextInfo, taskPrompt,
	)

	start := time.Now()
	response, err := a.reasoner.Generate(ctx, prompt)
	metrics.RecordReasoningRequest(a.reasoner.Name(), time.Since(start), err)

	if err != nil {
		a.log.Errorf("Reasoning failed: %v", err)
		response = fmt.Sprintf("Error generating response: %v", err)
	}

	// The exchange is remembered either way so degraded runs leave a trace.
	a.memory.Remember("user", taskPrompt)
	a.memory.Remember("assistant", response)

	return response
}
