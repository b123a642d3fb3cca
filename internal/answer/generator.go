package answer

import (
	"context"
	"strings"

	"github.com/lectern-ai/lectern/internal/core"
	"github.com/lectern-ai/lectern/internal/llm"
	"github.com/lectern-ai/lectern/internal/logger"
)

// OfflineSentinel is returned whenever the language model cannot produce an
// answer. The serving layer must never fail a request just because the
// model is down.
const OfflineSentinel = "The assistant is currently offline. Please try again later."

// boilerplatePrefixes are prompt-leakage artifacts the model tends to echo
// at the start of an answer.
var boilerplatePrefixes = []string{
	"Based on the provided context,",
	"Based on the provided context",
	"Based on the context provided,",
	"According to the provided context,",
	"According to the context,",
	"As an AI language model,",
	"Answer:",
}

// Generator produces natural-language answers from retrieved context via
// the language model, degrading to a fixed sentinel when the model is
// unavailable or out of time budget.
type Generator struct {
	model       llm.InitResult
	maxTokens   int
	temperature float32
}

// NewGenerator constructs a Generator over the model init result.
func NewGenerator(model llm.InitResult, maxTokens int, temperature float32) *Generator {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Generator{model: model, maxTokens: maxTokens, temperature: temperature}
}

// Available reports whether the underlying model initialized.
func (g *Generator) Available() bool {
	return g.model.Ready()
}

// Generate builds a single prompt from the question, retrieved chunks and
// trailing history, submits it, and cleans the output. It never returns an
// error: unavailability and timeouts both degrade to the offline sentinel.
func (g *Generator) Generate(ctx context.Context, question string, chunks []core.Chunk, history []core.Turn) string {
	model, err := g.model.Service()
	if err != nil {
		logger.Warn("Answer generation degraded to sentinel: %v", err)
		return OfflineSentinel
	}

	prompt := llm.BuildAnswerPrompt(question, chunks, history)
	raw, err := model.Complete(ctx, prompt, g.maxTokens, g.temperature)
	if err != nil {
		logger.Error("Completion failed, returning sentinel: %v", err)
		return OfflineSentinel
	}

	cleaned := Clean(raw)
	if cleaned == "" {
		logger.Warn("Model returned empty answer after cleaning")
		return OfflineSentinel
	}
	return cleaned
}

// Clean strips known boilerplate lead-ins and trims surrounding whitespace.
func Clean(text string) string {
	cleaned := strings.TrimSpace(text)
	for changed := true; changed; {
		changed = false
		for _, prefix := range boilerplatePrefixes {
			if strings.HasPrefix(cleaned, prefix) {
				cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
				changed = true
			}
		}
	}
	return cleaned
}
