package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lectern-ai/lectern/internal/core"
	"github.com/lectern-ai/lectern/internal/llm"
)

type fixedModel struct {
	reply string
	err   error
}

func (m fixedModel) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	return m.reply, m.err
}

func TestCleanStripsBoilerplate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Based on the provided context, the exam is on June 3.", "the exam is on June 3."},
		{"Answer: Based on the context provided, see section 2.", "see section 2."},
		{"  plain answer with no lead-in  ", "plain answer with no lead-in"},
		{"According to the provided context,", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Clean(tc.in))
	}
}

func TestGenerateReturnsCleanedAnswer(t *testing.T) {
	g := NewGenerator(llm.Ready(fixedModel{reply: "Based on the provided context, office hours are Tuesdays."}), 0, 0.2)

	got := g.Generate(context.Background(), "when are office hours?", nil, nil)
	assert.Equal(t, "office hours are Tuesdays.", got)
}

func TestGenerateSentinelWhenUnavailable(t *testing.T) {
	g := NewGenerator(llm.Unavailable("missing api key"), 256, 0.2)

	assert.False(t, g.Available())
	assert.Equal(t, OfflineSentinel, g.Generate(context.Background(), "anything", nil, nil))
}

func TestGenerateSentinelOnCompletionError(t *testing.T) {
	timedOut := fixedModel{err: errors.New("request timed out: " + core.ErrGenerationTimeout.Error())}
	g := NewGenerator(llm.Ready(timedOut), 256, 0.2)

	assert.Equal(t, OfflineSentinel, g.Generate(context.Background(), "anything", nil, nil))
}

func TestGenerateSentinelOnEmptyCompletion(t *testing.T) {
	g := NewGenerator(llm.Ready(fixedModel{reply: "  Answer:  "}), 256, 0.2)

	assert.Equal(t, OfflineSentinel, g.Generate(context.Background(), "anything", nil, nil))
}
