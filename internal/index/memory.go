package index

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/lectern-ai/lectern/internal/core"
)

// MemoryIndex is a brute-force cosine-similarity index held in process
// memory. It backs tests and local runs where no Milvus deployment exists,
// and implements the same contract: append-only upsert, duplicates accepted,
// stable tie-break by insertion order.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []core.IndexEntry
}

// NewMemoryIndex returns an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Upsert appends entries in order.
func (m *MemoryIndex) Upsert(ctx context.Context, entries []core.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

// Search ranks all stored entries by cosine similarity to vector, applies
// the metadata equality filter before ranking, and returns the top k. Sort
// stability preserves insertion order among equal scores.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int, filter map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		k = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]core.SearchResult, 0, len(m.entries))
	for _, e := range m.entries {
		if !matchesFilter(e.Chunk.Metadata, filter) {
			continue
		}
		results = append(results, core.SearchResult{
			Chunk: e.Chunk,
			Score: cosine(vector, e.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of stored entries.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func matchesFilter(meta core.ChunkMetadata, filter map[string]string) bool {
	for field, want := range filter {
		if metadataField(meta, field) != want {
			return false
		}
	}
	return true
}

func metadataField(meta core.ChunkMetadata, field string) string {
	switch field {
	case "title":
		return meta.Title
	case "department":
		return meta.Department
	case "subject_code":
		return meta.SubjectCode
	case "content_type":
		return meta.ContentType
	case "source":
		return meta.Source
	}
	return ""
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
