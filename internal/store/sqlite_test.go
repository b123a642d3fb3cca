package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser(context.Background(), "ghost")
	assert.True(t, errors.Is(err, core.ErrUserNotFound))
}

func TestPutAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutUser(ctx, core.UserProfile{ID: "u1", Name: "Asha", Department: "BCA"}))

	p, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
	assert.Equal(t, "BCA", p.Department)

	// Upsert replaces.
	require.NoError(t, s.PutUser(ctx, core.UserProfile{ID: "u1", Name: "Asha", Department: "MCA"}))
	p, err = s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "MCA", p.Department)
}

func TestConversationHeaderIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exists, err := s.ConversationExists(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateConversation(ctx, "u1", "c1", "What is SQL"))
	// Second write with the same id must not error or duplicate.
	require.NoError(t, s.CreateConversation(ctx, "u1", "c1", "different title"))

	exists, err = s.ConversationExists(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := s.CountConversations(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMessagesOrderedByTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateConversation(ctx, "u1", "c1", "t"))
	require.NoError(t, s.AppendMessage(ctx, "u1", "c1", core.RoleUser, "q1"))
	require.NoError(t, s.AppendMessage(ctx, "u1", "c1", core.RoleAssistant, "a1"))
	require.NoError(t, s.AppendMessage(ctx, "u1", "c1", core.RoleUser, "q2"))
	require.NoError(t, s.AppendMessage(ctx, "u1", "c1", core.RoleAssistant, "a2"))

	messages, err := s.ListMessages(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, []string{
		messages[0].Content, messages[1].Content, messages[2].Content, messages[3].Content,
	})
	for _, m := range messages {
		assert.NotZero(t, m.CreatedAt, "store must assign timestamps")
	}
}

func TestMessagesScopedToConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendMessage(ctx, "u1", "c1", core.RoleUser, "mine"))
	require.NoError(t, s.AppendMessage(ctx, "u1", "c2", core.RoleUser, "other convo"))
	require.NoError(t, s.AppendMessage(ctx, "u2", "c1", core.RoleUser, "other user"))

	messages, err := s.ListMessages(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "mine", messages[0].Content)
}

func TestImportantDatesBuckets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutImportantDate(ctx, core.ImportantDate{
		Title: "Mid-term exam", Date: "2026-03-12", Department: "BCA", EventType: core.EventExam,
	}))
	require.NoError(t, s.PutImportantDate(ctx, core.ImportantDate{
		Title: "DBMS assignment", Date: "2026-02-20", Department: "BCA", EventType: core.EventAssignmentDeadline,
	}))
	require.NoError(t, s.PutImportantDate(ctx, core.ImportantDate{
		Title: "Final exam", Date: "2026-05-02", Department: "MCA", EventType: core.EventExam,
	}))

	exams, err := s.ImportantDates(ctx, "BCA", core.EventExam)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, "Mid-term exam", exams[0].Title)

	deadlines, err := s.ImportantDates(ctx, "BCA", core.EventAssignmentDeadline)
	require.NoError(t, err)
	require.Len(t, deadlines, 1)
	assert.Equal(t, core.EventAssignmentDeadline, deadlines[0].EventType)

	empty, err := s.ImportantDates(ctx, "BCA", core.EventFeedbackDeadline)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDiskObjectStorePut(t *testing.T) {
	root := t.TempDir()
	blobs, err := NewDiskObjectStore(root, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	url, err := blobs.Put(context.Background(), "notes.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/notes.pdf", url)
}
