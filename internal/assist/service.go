package assist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lectern-ai/lectern/internal/answer"
	"github.com/lectern-ai/lectern/internal/chunker"
	"github.com/lectern-ai/lectern/internal/classify"
	"github.com/lectern-ai/lectern/internal/convo"
	"github.com/lectern-ai/lectern/internal/core"
	"github.com/lectern-ai/lectern/internal/loader"
	"github.com/lectern-ai/lectern/internal/logger"
	"github.com/lectern-ai/lectern/internal/retrieve"
)

// titleLimit bounds the conversation title minted from the first question.
const titleLimit = 60

// Reply is the outcome of one answered query.
type Reply struct {
	ConversationID string
	Answer         string
	Route          classify.Route
}

// Service is the retrieval-augmented answering pipeline: classify, retrieve,
// generate, persist. One instance serves all users; per-conversation state
// lives in the memories map.
type Service struct {
	store     core.RecordStore
	index     core.VectorIndex
	embedder  core.EmbedService
	objects   core.ObjectStore
	chunker   *chunker.Chunker
	retriever *retrieve.Retriever
	generator *answer.Generator

	mu       sync.Mutex
	memories map[string]*convo.Memory
}

// New wires the pipeline from its collaborators. All handles are explicit
// so tests can substitute in-memory implementations.
func New(store core.RecordStore, index core.VectorIndex, embedder core.EmbedService,
	objects core.ObjectStore, ch *chunker.Chunker, retriever *retrieve.Retriever,
	generator *answer.Generator) *Service {
	return &Service{
		store:     store,
		index:     index,
		embedder:  embedder,
		objects:   objects,
		chunker:   ch,
		retriever: retriever,
		generator: generator,
		memories:  make(map[string]*convo.Memory),
	}
}

// Answer handles one query end to end. Steps within a request are strictly
// sequential; requests across users run concurrently at the serving layer.
// An empty conversationID starts a new thread; the minted id comes back in
// the Reply.
func (s *Service) Answer(ctx context.Context, userID, conversationID, question string) (Reply, error) {
	profile, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Reply{}, err
	}

	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	route := classify.Classify(question)
	logger.Info("User %s question routed as %s", userID, route)

	var text string
	switch route {
	case classify.RouteExamDates:
		text, err = s.answerDates(ctx, profile, core.EventExam)
	case classify.RouteAssignmentDeadlines:
		text, err = s.answerDates(ctx, profile, core.EventAssignmentDeadline)
	case classify.RouteFactual:
		text, err = s.answerRetrieved(ctx, userID, conversationID, question, false)
	default:
		text, err = s.answerRetrieved(ctx, userID, conversationID, question, true)
	}
	if err != nil {
		return Reply{}, err
	}

	memory := s.memory(userID, conversationID)
	memory.Append(core.RoleUser, question)
	memory.Append(core.RoleAssistant, text)

	if _, err := s.PersistTurn(ctx, userID, conversationID, question, text); err != nil {
		return Reply{}, err
	}

	return Reply{ConversationID: conversationID, Answer: text, Route: route}, nil
}

// answerDates formats a structured date list for the user's department.
// Deterministic: no language model is ever involved on this route.
func (s *Service) answerDates(ctx context.Context, profile core.UserProfile, eventType core.DateEventType) (string, error) {
	dates, err := s.store.ImportantDates(ctx, profile.Department, eventType)
	if err != nil {
		return "", err
	}

	label := "exam dates"
	if eventType == core.EventAssignmentDeadline {
		label = "assignment deadlines"
	}

	if len(dates) == 0 {
		return fmt.Sprintf("No %s are currently recorded for %s.", label, profile.Department), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Upcoming %s for %s:\n", label, profile.Department))
	for _, d := range dates {
		sb.WriteString(fmt.Sprintf("- %s: %s", d.Title, d.Date))
		if d.Description != "" {
			sb.WriteString(" (" + d.Description + ")")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// answerRetrieved runs the retrieval and generation legs. Conversational
// queries attach history and retrieve narrowly; factual queries retrieve
// broadly with none.
func (s *Service) answerRetrieved(ctx context.Context, userID, conversationID, question string, conversational bool) (string, error) {
	var history *convo.Memory
	k := retrieve.FactualK
	if conversational {
		history = s.memory(userID, conversationID)
		s.warmMemory(ctx, userID, conversationID, history)
		k = retrieve.ConversationalK
	}

	chunks, err := s.retriever.Retrieve(ctx, question, history, k)
	if err != nil {
		return "", err
	}

	var turns []core.Turn
	if history != nil {
		turns = history.Turns()
	}
	return s.generator.Generate(ctx, question, chunks, turns), nil
}

// PersistTurn writes one question/answer pair, minting a conversation id
// when none is supplied. The header is written once, guarded by an
// existence probe; every call appends exactly two message records.
func (s *Service) PersistTurn(ctx context.Context, userID, conversationID, question, answerText string) (string, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	exists, err := s.store.ConversationExists(ctx, userID, conversationID)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := s.store.CreateConversation(ctx, userID, conversationID, truncateTitle(question)); err != nil {
			return "", err
		}
	}

	if err := s.store.AppendMessage(ctx, userID, conversationID, core.RoleUser, question); err != nil {
		return "", err
	}
	if err := s.store.AppendMessage(ctx, userID, conversationID, core.RoleAssistant, answerText); err != nil {
		return "", err
	}
	return conversationID, nil
}

// ListConversation reads back the stored transcript, ordered by timestamp.
func (s *Service) ListConversation(ctx context.Context, userID, conversationID string) ([]core.MessageRecord, error) {
	return s.store.ListMessages(ctx, userID, conversationID)
}

// memory returns the in-process history for one (user, conversation) pair,
// creating it on first touch.
func (s *Service) memory(userID, conversationID string) *convo.Memory {
	key := userID + "/" + conversationID
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[key]
	if !ok {
		m = convo.NewMemory()
		s.memories[key] = m
	}
	return m
}

// warmMemory rebuilds an empty in-process history from the stored
// transcript, so follow-ups keep working when a known conversation id
// arrives on a fresh process. Read failures only cost context, never the
// request.
func (s *Service) warmMemory(ctx context.Context, userID, conversationID string, memory *convo.Memory) {
	if memory.Len() > 0 {
		return
	}
	messages, err := s.store.ListMessages(ctx, userID, conversationID)
	if err != nil {
		logger.Warn("Could not warm history for %s/%s: %v", userID, conversationID, err)
		return
	}
	for _, m := range messages {
		memory.Append(m.Role, m.Content)
	}
	if len(messages) > 0 {
		logger.Debug("Warmed history for %s/%s with %d stored messages", userID, conversationID, len(messages))
	}
}

// IngestText chunks, embeds and indexes one document's text. Returns the
// number of chunks written.
func (s *Service) IngestText(ctx context.Context, text string, meta core.ChunkMetadata) (int, error) {
	chunks := s.chunker.Split(text, meta)
	if len(chunks) == 0 {
		return 0, nil
	}

	entries := make([]core.IndexEntry, 0, len(chunks))
	for _, ch := range chunks {
		vector, err := s.embedder.EmbedQuery(ctx, ch.Text)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk of %s: %w", meta.Source, err)
		}
		entries = append(entries, core.IndexEntry{Chunk: ch, Embedding: vector})
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return 0, err
	}
	logger.Info("Ingested %d chunks from %s", len(entries), meta.Source)
	return len(entries), nil
}

// IngestFile loads a document from disk and indexes it.
func (s *Service) IngestFile(ctx context.Context, path string, meta core.ChunkMetadata) (int, error) {
	doc, err := loader.Load(path)
	if err != nil {
		return 0, err
	}
	if meta.Source == "" {
		meta.Source = doc.Source
	}
	return s.IngestText(ctx, doc.Text, meta)
}

// UploadDocument stores the raw blob first, then ingests it. The public URL
// is returned even when the extension has no loader; the typed error still
// tells the caller ingestion was skipped.
func (s *Service) UploadDocument(ctx context.Context, filename string, data []byte, meta core.ChunkMetadata) (string, int, error) {
	url, err := s.objects.Put(ctx, filename, data)
	if err != nil {
		return "", 0, err
	}

	if !loader.Supported(filename) {
		return url, 0, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, filepath.Ext(filename))
	}

	doc, err := loader.LoadBytes(filename, data)
	if err != nil {
		return url, 0, err
	}
	if meta.Source == "" {
		meta.Source = doc.Source
	}
	n, err := s.IngestText(ctx, doc.Text, meta)
	return url, n, err
}

// SeedCorpus ingests every supported file directly under dir. Unsupported
// files are skipped, not fatal; the seed corpus is best effort by design.
func (s *Service) SeedCorpus(ctx context.Context, dir string, meta core.ChunkMetadata) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed directory %s: %w", dir, err)
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() || !loader.Supported(e.Name()) {
			continue
		}
		fileMeta := meta
		fileMeta.Source = e.Name()
		if fileMeta.Title == "" {
			fileMeta.Title = strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		}
		n, err := s.IngestFile(ctx, filepath.Join(dir, e.Name()), fileMeta)
		if err != nil {
			if errors.Is(err, core.ErrIndexUnavailable) {
				return total, err
			}
			logger.Warn("Skipping seed file %s: %v", e.Name(), err)
			continue
		}
		total += n
	}
	logger.Info("Seed corpus ingestion complete: %d chunks from %s", total, dir)
	return total, nil
}

func truncateTitle(question string) string {
	runes := []rune(strings.TrimSpace(question))
	if len(runes) <= titleLimit {
		return string(runes)
	}
	return string(runes[:titleLimit])
}
