package core

// Document is the raw text of one loaded source file. It exists only while
// ingestion is running; the index stores chunks, not documents.
type Document struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ChunkMetadata is the record stamped onto every chunk produced from one
// ingestion call.
type ChunkMetadata struct {
	Title       string `json:"title,omitempty"`
	Department  string `json:"department,omitempty"`
	SubjectCode string `json:"subject_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Chunk is a bounded fragment of a document, the atomic unit of retrieval.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// IndexEntry is what the vector index physically stores: a chunk together
// with its embedding.
type IndexEntry struct {
	Chunk     Chunk     `json:"chunk"`
	Embedding []float32 `json:"embedding"`
}

// SearchResult pairs an indexed chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// Turn is one message of a conversation, role "user" or "assistant".
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UserProfile is the structured-store record for one user.
type UserProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// ConversationHeader is written exactly once per conversation id.
type ConversationHeader struct {
	UserID    string `json:"user_id"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
}

// MessageRecord is one persisted turn. CreatedAt is assigned by the store.
type MessageRecord struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// DateEventType names the three important-date lists kept per department.
type DateEventType string

const (
	EventExam               DateEventType = "exam"
	EventAssignmentDeadline DateEventType = "assignment_deadline"
	EventFeedbackDeadline   DateEventType = "feedback_deadline"
)

// ImportantDate is one entry of a department's date bucket.
type ImportantDate struct {
	Title       string        `json:"title"`
	Date        string        `json:"date"`
	Department  string        `json:"department"`
	EventType   DateEventType `json:"event_type"`
	Description string        `json:"description,omitempty"`
}
