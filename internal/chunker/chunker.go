package chunker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lectern-ai/lectern/internal/core"
)

// Defaults for the sliding window, in runes.
const (
	DefaultMaxSize = 1000
	DefaultOverlap = 100
)

// Chunker splits document text into overlapping fixed-size windows. It keeps
// no state between calls, so the same input always produces the same
// sequence of chunk texts.
type Chunker struct {
	maxSize int
	overlap int
}

// New returns a Chunker with the given window size and overlap, both in
// runes. Overlap must be smaller than the window.
func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", maxSize, overlap)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// NewDefault returns a Chunker with the default window and overlap.
func NewDefault() *Chunker {
	c, _ := New(DefaultMaxSize, DefaultOverlap)
	return c
}

// Split cuts text into consecutive windows of at most maxSize runes, each
// overlapping its predecessor by overlap runes. Every chunk is stamped with
// its own copy of meta; mutating one chunk's metadata never affects a
// sibling. Empty input yields an empty slice.
func (c *Chunker) Split(text string, meta core.ChunkMetadata) []core.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return []core.Chunk{}
	}

	step := c.maxSize - c.overlap
	chunks := make([]core.Chunk, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + c.maxSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, core.Chunk{
			ID:       uuid.NewString(),
			Text:     string(runes[start:end]),
			Metadata: meta, // struct copy, not a shared reference
		})

		if end == len(runes) {
			break
		}
	}
	return chunks
}

// MaxSize returns the configured window size in runes.
func (c *Chunker) MaxSize() int { return c.maxSize }

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int { return c.overlap }
