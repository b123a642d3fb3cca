package convo

import (
	"sync"

	"github.com/lectern-ai/lectern/internal/core"
)

// Memory holds the rolling message history for one active conversation.
// It is append-only for the lifetime of the session; the store keeps the
// durable transcript. Instances are not shared across users, but the serving
// layer may touch the same conversation from concurrent requests, so access
// is guarded.
type Memory struct {
	mu    sync.RWMutex
	turns []core.Turn
}

// NewMemory returns an empty conversation history.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records one turn at the end of the history.
func (m *Memory) Append(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, core.Turn{Role: role, Content: content})
}

// Turns returns a copy of the full ordered history.
func (m *Memory) Turns() []core.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Tail returns a copy of the last n turns (all of them when n exceeds the
// history length). Prompt builders use this so very long sessions do not
// grow prompts without bound.
func (m *Memory) Tail(n int) []core.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || len(m.turns) == 0 {
		return []core.Turn{}
	}
	start := len(m.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]core.Turn, len(m.turns)-start)
	copy(out, m.turns[start:])
	return out
}

// Len returns the number of recorded turns.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}
