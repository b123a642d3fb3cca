package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	milvusindex "github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/lectern-ai/lectern/internal/core"
	"github.com/lectern-ai/lectern/internal/logger"
)

// Field names for the chunk collection.
const (
	FieldID          = "id"
	FieldText        = "text"
	FieldTitle       = "title"
	FieldDepartment  = "department"
	FieldSubjectCode = "subject_code"
	FieldContentType = "content_type"
	FieldSource      = "source"
	FieldMetadata    = "metadata"
	FieldCreatedAt   = "created_at"
	FieldEmbedding   = "embedding"
)

// DefaultCollection is the collection chunks are stored in.
const DefaultCollection = "course_chunks"

// filterableFields are the scalar fields a metadata equality filter may
// reference. Anything else is rejected before it reaches the store.
var filterableFields = map[string]bool{
	FieldTitle:       true,
	FieldDepartment:  true,
	FieldSubjectCode: true,
	FieldContentType: true,
	FieldSource:      true,
}

// MilvusIndex stores chunk embeddings in a Milvus collection and searches
// them with an HNSW index under the cosine metric.
type MilvusIndex struct {
	client     *milvusclient.Client
	collection string
	dim        int
}

// NewMilvusIndex connects to Milvus and ensures the chunk collection exists
// and is loaded.
func NewMilvusIndex(ctx context.Context, addr, collection string, dim int) (*MilvusIndex, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	logger.Info("Connecting to Milvus at %s (collection %s, dim %d)", addr, collection, dim)

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %v", core.ErrIndexUnavailable, addr, err)
	}

	idx := &MilvusIndex{client: c, collection: collection, dim: dim}
	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// ensureCollection creates the collection, its vector index and loads it
// into memory if it does not already exist.
func (m *MilvusIndex) ensureCollection(ctx context.Context) error {
	hasOpt := milvusclient.NewHasCollectionOption(m.collection)
	exists, err := m.client.HasCollection(ctx, hasOpt)
	if err != nil {
		return fmt.Errorf("%w: failed to check collection: %v", core.ErrIndexUnavailable, err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: m.collection,
			Description:    "Course document chunks for retrieval",
			Fields: []*entity.Field{
				{
					Name:       FieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": "100"},
				},
				{
					Name:       FieldText,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "65535"},
				},
				{
					Name:       FieldTitle,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:       FieldDepartment,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "100"},
				},
				{
					Name:       FieldSubjectCode,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "100"},
				},
				{
					Name:       FieldContentType,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "100"},
				},
				{
					Name:       FieldSource,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:     FieldMetadata,
					DataType: entity.FieldTypeJSON,
				},
				{
					Name:     FieldCreatedAt,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     FieldEmbedding,
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", m.dim),
					},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(m.collection, schema)
		if err := m.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		hnsw := milvusindex.NewHNSWIndex(entity.COSINE, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(m.collection, FieldEmbedding, hnsw)
		if _, err := m.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("failed to create index on embedding field: %w", err)
		}

		logger.Info("Created collection %s with HNSW/COSINE index", m.collection)
	}

	loadOpt := milvusclient.NewLoadCollectionOption(m.collection)
	if _, err := m.client.LoadCollection(ctx, loadOpt); err != nil {
		return fmt.Errorf("%w: failed to load collection: %v", core.ErrIndexUnavailable, err)
	}
	return nil
}

// Upsert inserts entries as new rows. No uniqueness is enforced across
// calls; re-ingesting identical text creates duplicate rows.
func (m *MilvusIndex) Upsert(ctx context.Context, entries []core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	n := len(entries)
	ids := make([]string, n)
	texts := make([]string, n)
	titles := make([]string, n)
	departments := make([]string, n)
	subjectCodes := make([]string, n)
	contentTypes := make([]string, n)
	sources := make([]string, n)
	metadatas := make([][]byte, n)
	createdAts := make([]int64, n)
	vectors := make([][]float32, n)

	now := time.Now().Unix()
	for i, e := range entries {
		ids[i] = e.Chunk.ID
		texts[i] = e.Chunk.Text
		titles[i] = e.Chunk.Metadata.Title
		departments[i] = e.Chunk.Metadata.Department
		subjectCodes[i] = e.Chunk.Metadata.SubjectCode
		contentTypes[i] = e.Chunk.Metadata.ContentType
		sources[i] = e.Chunk.Metadata.Source
		createdAts[i] = now
		vectors[i] = e.Embedding

		metaJSON, err := json.Marshal(e.Chunk.Metadata)
		if err != nil {
			metaJSON = []byte("{}")
		}
		metadatas[i] = metaJSON
	}

	insertOpt := milvusclient.NewColumnBasedInsertOption(m.collection,
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnVarChar(FieldText, texts),
		column.NewColumnVarChar(FieldTitle, titles),
		column.NewColumnVarChar(FieldDepartment, departments),
		column.NewColumnVarChar(FieldSubjectCode, subjectCodes),
		column.NewColumnVarChar(FieldContentType, contentTypes),
		column.NewColumnVarChar(FieldSource, sources),
		column.NewColumnJSONBytes(FieldMetadata, metadatas),
		column.NewColumnInt64(FieldCreatedAt, createdAts),
		column.NewColumnFloatVector(FieldEmbedding, m.dim, vectors),
	)

	if _, err := m.client.Insert(ctx, insertOpt); err != nil {
		return fmt.Errorf("%w: insert failed: %v", core.ErrIndexUnavailable, err)
	}

	logger.Debug("Upserted %d entries into %s", n, m.collection)
	return nil
}

// Search runs a k-nearest-neighbor query under the cosine metric, restricted
// by the metadata equality filter when one is supplied.
func (m *MilvusIndex) Search(ctx context.Context, vector []float32, k int, filter map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		k = 5
	}

	searchOpt := milvusclient.NewSearchOption(m.collection, k, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldEmbedding).
		WithOutputFields(FieldID, FieldText, FieldTitle, FieldDepartment, FieldSubjectCode, FieldContentType, FieldSource)

	if expr := buildFilterExpr(filter); expr != "" {
		searchOpt = searchOpt.WithFilter(expr)
	}

	resultSets, err := m.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", core.ErrIndexUnavailable, err)
	}
	if len(resultSets) == 0 {
		return []core.SearchResult{}, nil
	}

	rs := resultSets[0]
	results := make([]core.SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		id, err := rs.IDs.GetAsString(i)
		if err != nil {
			continue
		}

		chunk := core.Chunk{
			ID: id,
			Metadata: core.ChunkMetadata{
				Title:       columnString(rs.GetColumn(FieldTitle), i),
				Department:  columnString(rs.GetColumn(FieldDepartment), i),
				SubjectCode: columnString(rs.GetColumn(FieldSubjectCode), i),
				ContentType: columnString(rs.GetColumn(FieldContentType), i),
				Source:      columnString(rs.GetColumn(FieldSource), i),
			},
		}
		chunk.Text = columnString(rs.GetColumn(FieldText), i)

		score := float32(0)
		if i < len(rs.Scores) {
			score = rs.Scores[i]
		}
		results = append(results, core.SearchResult{Chunk: chunk, Score: score})
	}
	return results, nil
}

// Close closes the Milvus connection.
func (m *MilvusIndex) Close(ctx context.Context) error {
	return m.client.Close(ctx)
}

// buildFilterExpr turns a metadata equality map into a Milvus boolean
// expression. Unknown fields are dropped rather than passed through.
func buildFilterExpr(filter map[string]string) string {
	if len(filter) == 0 {
		return ""
	}
	terms := make([]string, 0, len(filter))
	for _, field := range []string{FieldTitle, FieldDepartment, FieldSubjectCode, FieldContentType, FieldSource} {
		value, ok := filter[field]
		if !ok || !filterableFields[field] {
			continue
		}
		terms = append(terms, fmt.Sprintf(`%s == "%s"`, field, escapeFilterValue(value)))
	}
	return strings.Join(terms, " && ")
}

func escapeFilterValue(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

func columnString(col column.Column, i int) string {
	if col == nil || i >= col.Len() {
		return ""
	}
	s, err := col.GetAsString(i)
	if err != nil {
		return ""
	}
	return s
}
