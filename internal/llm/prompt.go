package llm

import (
	"fmt"
	"strings"

	"github.com/lectern-ai/lectern/internal/core"
)

// historyWindow bounds how many trailing turns a prompt carries. The
// in-process history itself is unbounded; only the prompt view is capped.
const historyWindow = 10

// BuildAnswerPrompt assembles the single prompt submitted for answer
// generation: retrieved context, optional trailing history, then the
// question.
func BuildAnswerPrompt(question string, chunks []core.Chunk, history []core.Turn) string {
	var builder strings.Builder

	builder.WriteString("You are an academic assistant for university course material. ")
	builder.WriteString("Answer the student's question using only the context below. ")
	builder.WriteString("If the context does not contain the answer, say so briefly.\n\n")

	if len(chunks) > 0 {
		builder.WriteString("Context:\n")
		for i, ch := range chunks {
			builder.WriteString(fmt.Sprintf("[%d]", i+1))
			if ch.Metadata.Title != "" {
				builder.WriteString(" " + ch.Metadata.Title)
			}
			if ch.Metadata.SubjectCode != "" {
				builder.WriteString(" (" + ch.Metadata.SubjectCode + ")")
			}
			builder.WriteString("\n")
			builder.WriteString(ch.Text)
			builder.WriteString("\n\n")
		}
	}

	if turns := tailTurns(history, historyWindow); len(turns) > 0 {
		builder.WriteString("Conversation so far:\n")
		for _, turn := range turns {
			builder.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
		}
		builder.WriteString("\n")
	}

	builder.WriteString("Question: ")
	builder.WriteString(question)
	builder.WriteString("\nAnswer:")

	return builder.String()
}

// BuildRewritePrompt asks the model to turn a follow-up question into a
// standalone one, resolving pronoun and ellipsis references to prior turns.
func BuildRewritePrompt(question string, history []core.Turn) string {
	var builder strings.Builder

	builder.WriteString("Given the conversation below, rewrite the final question ")
	builder.WriteString("as a single standalone question that needs no prior context. ")
	builder.WriteString("Reply with the rewritten question only.\n\n")

	for _, turn := range tailTurns(history, historyWindow) {
		builder.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
	}

	builder.WriteString("\nQuestion: ")
	builder.WriteString(question)

	return builder.String()
}

func tailTurns(history []core.Turn, n int) []core.Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
