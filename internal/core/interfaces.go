package core

import "context"

// EmbedService turns text into a fixed-length dense vector. Deterministic for
// identical input; the model is fixed at startup.
type EmbedService interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// LLMService is the black-box completion function behind answer generation
// and follow-up-question rewriting.
type LLMService interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// VectorIndex stores chunk embeddings and supports nearest-neighbor search.
type VectorIndex interface {
	// Upsert appends entries. Re-adding identical text creates a duplicate;
	// the index never deduplicates across calls.
	Upsert(ctx context.Context, entries []IndexEntry) error

	// Search returns up to k entries by cosine similarity, descending, with
	// ties broken by insertion order. filter restricts candidates by
	// metadata field equality before ranking. An empty index yields an empty
	// slice; an unreachable backing store yields ErrIndexUnavailable.
	Search(ctx context.Context, vector []float32, k int, filter map[string]string) ([]SearchResult, error)
}

// RecordStore is the hierarchical structured store holding user profiles,
// conversation transcripts and per-department important dates. Write
// timestamps are assigned server-side.
type RecordStore interface {
	GetUser(ctx context.Context, userID string) (UserProfile, error)
	PutUser(ctx context.Context, profile UserProfile) error

	ConversationExists(ctx context.Context, userID, conversationID string) (bool, error)
	CreateConversation(ctx context.Context, userID, conversationID, title string) error
	AppendMessage(ctx context.Context, userID, conversationID, role, content string) error
	ListMessages(ctx context.Context, userID, conversationID string) ([]MessageRecord, error)

	ImportantDates(ctx context.Context, department string, eventType DateEventType) ([]ImportantDate, error)
	PutImportantDate(ctx context.Context, date ImportantDate) error
}

// ObjectStore keeps uploaded document blobs and hands back a public URL.
// Only the upload ingestion path touches it; answering never does.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte) (publicURL string, err error)
}
