package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/MRamiBalles/DrillCore/internal/narrative"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/platform/metrics"
)

// Narrator implements narrative.Narrator on top of an LLMProvider. Any
// provider failure falls back to the static narrator so a cue always yields a line.
type Narrator struct {
	provider LLMProvider
	fallback narrative.Narrator
	metrics  *metrics.Collector
	logger   *logger.Logger
	timeout  time.Duration
}

// NewNarrator wires a provider with a fallback. m may be nil.
func NewNarrator(p LLMProvider, fallback narrative.Narrator, m *metrics.Collector, log *logger.Logger) *Narrator {
	return &Narrator{
		provider: p,
		fallback: fallback,
		metrics:  m,
		logger:   log,
		timeout:  10 * time.Second,
	}
}

// Line asks the model for a line, then the fallback.
func (n *Narrator) Line(ctx context.Context, c narrative.Context) (string, error) {
	if n.provider == nil || !n.provider.IsAvailable() {
		return n.fallback.Line(ctx, c)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := time.Now()
	resp, err := n.provider.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: NarratorSystemPrompt},
			{Role: "user", Content: BuildContextPrompt(c)},
		},
		MaxTokens:   60,
		Temperature: 0.9,
	})

	var line string
	if err == nil {
		line, err = ValidateLine(resp.Content)
	}
	if n.metrics != nil {
		tokens, cost := 0, 0.0
		if resp != nil {
			tokens, cost = resp.TotalTokens, resp.CostUSD
		}
		n.metrics.RecordNarratorCall(tokens, cost, time.Since(start), err)
	}
	if err != nil {
		n.logger.Warn("narrator %s failed, using fallback: %v", n.provider.Name(), err)
		return n.fallback.Line(ctx, c)
	}
	if c.Biome != "" {
		line = fmt.Sprintf("[%s, %.0fm] %s", c.Biome, c.Depth, line)
	}
	return line, nil
}

var _ narrative.Narrator = (*Narrator)(nil)

// NewProvider picks a backend by name.
func NewProvider(name string, cfg ProviderConfig, gate *BudgetGate) (LLMProvider, error) {
	switch name {
	case "", "openai":
		return NewOpenAIProvider(cfg, gate), nil
	case "anthropic":
		return NewAnthropicProvider(cfg, gate), nil
	default:
		return nil, fmt.Errorf("unknown narrator provider %q", name)
	}
}
