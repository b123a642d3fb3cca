package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/core"
)

func entry(id, text string, meta core.ChunkMetadata, vec []float32) core.IndexEntry {
	return core.IndexEntry{
		Chunk:     core.Chunk{ID: id, Text: text, Metadata: meta},
		Embedding: vec,
	}
}

func TestSearchEmptyIndexReturnsEmpty(t *testing.T) {
	idx := NewMemoryIndex()
	results, err := idx.Search(context.Background(), []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	idx := NewMemoryIndex()
	err := idx.Upsert(context.Background(), []core.IndexEntry{
		entry("a", "far", core.ChunkMetadata{}, []float32{0, 1}),
		entry("b", "near", core.ChunkMetadata{}, []float32{1, 0.1}),
		entry("c", "exact", core.ChunkMetadata{}, []float32{1, 0}),
	})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c", results[0].Chunk.ID)
	assert.Equal(t, "b", results[1].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchIsDeterministicWithStableTies(t *testing.T) {
	idx := NewMemoryIndex()
	// Three identical vectors: scores tie, insertion order must hold.
	err := idx.Upsert(context.Background(), []core.IndexEntry{
		entry("first", "t", core.ChunkMetadata{}, []float32{1, 1}),
		entry("second", "t", core.ChunkMetadata{}, []float32{1, 1}),
		entry("third", "t", core.ChunkMetadata{}, []float32{1, 1}),
	})
	require.NoError(t, err)

	for run := 0; run < 5; run++ {
		results, err := idx.Search(context.Background(), []float32{1, 1}, 3, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "first", results[0].Chunk.ID, "run %d", run)
		assert.Equal(t, "second", results[1].Chunk.ID, "run %d", run)
		assert.Equal(t, "third", results[2].Chunk.ID, "run %d", run)
	}
}

func TestSearchMetadataFilterAppliedBeforeRanking(t *testing.T) {
	idx := NewMemoryIndex()
	err := idx.Upsert(context.Background(), []core.IndexEntry{
		entry("bca1", "dbms intro", core.ChunkMetadata{Department: "BCA", SubjectCode: "CADX155"}, []float32{1, 0}),
		entry("mca1", "dbms intro", core.ChunkMetadata{Department: "MCA", SubjectCode: "CADX900"}, []float32{1, 0}),
		entry("bca2", "sql joins", core.ChunkMetadata{Department: "BCA", SubjectCode: "CADX155"}, []float32{0.9, 0.1}),
	})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 5, map[string]string{
		"department":   "BCA",
		"subject_code": "CADX155",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "BCA", r.Chunk.Metadata.Department)
	}
}

func TestUpsertAcceptsDuplicates(t *testing.T) {
	idx := NewMemoryIndex()
	e := entry("dup", "same text", core.ChunkMetadata{}, []float32{1, 0})
	require.NoError(t, idx.Upsert(context.Background(), []core.IndexEntry{e}))
	require.NoError(t, idx.Upsert(context.Background(), []core.IndexEntry{e}))
	assert.Equal(t, 2, idx.Len())
}

func TestSearchKExceedingSizeReturnsAll(t *testing.T) {
	idx := NewMemoryIndex()
	for i := 0; i < 3; i++ {
		require.NoError(t, idx.Upsert(context.Background(), []core.IndexEntry{
			entry(fmt.Sprintf("e%d", i), "text", core.ChunkMetadata{}, []float32{1, float32(i)}),
		}))
	}
	results, err := idx.Search(context.Background(), []float32{1, 0}, 50, nil)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestBuildFilterExpr(t *testing.T) {
	assert.Equal(t, "", buildFilterExpr(nil))
	assert.Equal(t, `department == "BCA"`, buildFilterExpr(map[string]string{"department": "BCA"}))

	expr := buildFilterExpr(map[string]string{"department": "BCA", "subject_code": "CADX155"})
	assert.Equal(t, `department == "BCA" && subject_code == "CADX155"`, expr)

	// Unknown fields are dropped, never passed to the store.
	assert.Equal(t, "", buildFilterExpr(map[string]string{"bogus": "x"}))
}
