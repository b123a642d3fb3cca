package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/lectern-ai/lectern/internal/core"
	"github.com/lectern-ai/lectern/internal/convo"
	"github.com/lectern-ai/lectern/internal/llm"
	"github.com/lectern-ai/lectern/internal/logger"
)

// Per-route retrieval widths. Stateless factual lookups retrieve broadly;
// conversational turns carry implicit context and need less breadth.
const (
	FactualK        = 5
	ConversationalK = 3
)

// rewrite call budget, deliberately small: the rewrite is one short sentence.
const rewriteMaxTokens = 128

// Retriever wraps the vector index behind a question-shaped interface,
// optionally rewriting follow-up questions into standalone ones using the
// conversation history.
type Retriever struct {
	index    core.VectorIndex
	embedder core.EmbedService
	model    llm.InitResult
}

// New constructs a Retriever. The model is only used for history-aware
// query reformulation; when it is unavailable the raw query is searched
// as-is.
func New(index core.VectorIndex, embedder core.EmbedService, model llm.InitResult) *Retriever {
	return &Retriever{index: index, embedder: embedder, model: model}
}

// Retrieve returns up to k chunks relevant to query. A non-empty history
// triggers standalone-question rewriting before embedding and searching.
func (r *Retriever) Retrieve(ctx context.Context, query string, history *convo.Memory, k int) ([]core.Chunk, error) {
	searchQuery := query
	if history != nil && history.Len() > 0 {
		searchQuery = r.rewriteQuery(ctx, query, history)
	}

	vector, err := r.embedder.EmbedQuery(ctx, searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.index.Search(ctx, vector, k, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieval search failed: %w", err)
	}

	chunks := make([]core.Chunk, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, res.Chunk)
	}
	logger.Debug("Retrieved %d chunks for query %q", len(chunks), searchQuery)
	return chunks, nil
}

// rewriteQuery asks the model to resolve pronoun and ellipsis references
// against prior turns. Any failure falls back to the raw query: retrieval
// must not break because reformulation did.
func (r *Retriever) rewriteQuery(ctx context.Context, query string, history *convo.Memory) string {
	model, err := r.model.Service()
	if err != nil {
		logger.Debug("Query rewrite skipped: %v", err)
		return query
	}

	prompt := llm.BuildRewritePrompt(query, history.Turns())
	rewritten, err := model.Complete(ctx, prompt, rewriteMaxTokens, 0)
	if err != nil {
		logger.Warn("Query rewrite failed, searching raw query: %v", err)
		return query
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return query
	}
	logger.Debug("Rewrote %q into %q", query, rewritten)
	return rewritten
}
