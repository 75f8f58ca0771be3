package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowbase/knowbase-go/pkg/core"
	"github.com/knowbase/knowbase-go/pkg/llm"
	"github.com/knowbase/knowbase-go/pkg/logger"
	"github.com/knowbase/knowbase-go/pkg/storage"
)

// fakeStore is an in-memory VectorStore that returns documents in
// insertion order instead of similarity order.
type fakeStore struct {
	mu             sync.Mutex
	docs           map[string][]storage.Document
	lastQueryText  string
	lastQueryLimit int
	insertErr      error
	queryErr       error
	countErr       error
	listErr        error
	closed         bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string][]storage.Document)}
}

func (s *fakeStore) Insert(ctx context.Context, collection string, doc storage.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.docs[collection] = append(s.docs[collection], doc)
	return nil
}

func (s *fakeStore) Query(ctx context.Context, collection, query string, limit int) ([]storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	s.lastQueryText = query
	s.lastQueryLimit = limit
	docs := s.docs[collection]
	if limit < len(docs) {
		docs = docs[:limit]
	}
	return append([]storage.Document(nil), docs...), nil
}

func (s *fakeStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.docs[collection]), nil
}

func (s *fakeStore) List(ctx context.Context, collection string, limit int) ([]storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	docs := s.docs[collection]
	if limit >= 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return append([]storage.Document(nil), docs...), nil
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) documents(collection string) []storage.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Document(nil), s.docs[collection]...)
}

// fakeLLM returns a canned response and records every prompt it sees.
type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (p *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func (p *fakeLLM) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	var parts []string
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return p.Generate(ctx, strings.Join(parts, "\n"), opts...)
}

func (p *fakeLLM) Close() error { return nil }

func (p *fakeLLM) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func (p *fakeLLM) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

const extractionResponse = `[
  {"topic": "Editors", "content": "User switched to Neovim", "keywords": ["neovim", "editor"], "importance_score": 7},
  {"topic": "Go", "content": "Maps are not safe for concurrent writes", "keywords": ["go", "maps"], "importance_score": 8}
]`

func newTestKB(t *testing.T, store storage.VectorStore, provider llm.Provider) *core.KnowledgeBase {
	t.Helper()
	kb, err := core.NewFromComponents(&core.Config{}, store, provider, logger.NewNop())
	require.NoError(t, err)
	return kb
}

func TestStoreMessagePersistsConversationAndKnowledge(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{response: extractionResponse}
	kb := newTestKB(t, store, provider)

	result, err := kb.StoreMessage(context.Background(), "I switched to Neovim", core.WithUserID("user_001"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, 2, result.ItemsExtracted)

	conversations := store.documents(storage.CollectionConversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, result.ConversationID, conversations[0].ID)
	assert.Equal(t, "I switched to Neovim", conversations[0].Content)
	assert.Equal(t, "user_001", conversations[0].Metadata["user_id"])
	assert.Equal(t, result.ConversationID, conversations[0].Metadata["conversation_id"])
	assert.NotEmpty(t, conversations[0].Metadata["timestamp"])

	items := store.documents(storage.CollectionKnowledge)
	require.Len(t, items, 2)
	assert.Equal(t, fmt.Sprintf("%s_knowledge_0", result.ConversationID), items[0].ID)
	assert.Equal(t, fmt.Sprintf("%s_knowledge_1", result.ConversationID), items[1].ID)
	assert.Equal(t, "User switched to Neovim", items[0].Content)
	assert.Equal(t, "Editors", items[0].Metadata["topic"])
	assert.Equal(t, "neovim,editor", items[0].Metadata["keywords"])
	assert.Equal(t, "7", items[0].Metadata["importance_score"])
	assert.Equal(t, "user_001", items[0].Metadata["user_id"])
	assert.Equal(t, result.ConversationID, items[0].Metadata["source_conversation"])
}

func TestStoreMessageDefaultsUserID(t *testing.T) {
	store := newFakeStore()
	kb := newTestKB(t, store, &fakeLLM{response: "[]"})

	_, err := kb.StoreMessage(context.Background(), "hello world")
	require.NoError(t, err)

	conversations := store.documents(storage.CollectionConversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, "default", conversations[0].Metadata["user_id"])
}

func TestStoreMessageRejectsEmptyMessage(t *testing.T) {
	kb := newTestKB(t, newFakeStore(), &fakeLLM{response: "[]"})

	_, err := kb.StoreMessage(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyMessage)
}

func TestStoreMessageSurvivesExtractionFailure(t *testing.T) {
	store := newFakeStore()
	kb := newTestKB(t, store, &fakeLLM{err: errors.New("model unavailable")})

	result, err := kb.StoreMessage(context.Background(), "just a greeting")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ItemsExtracted)

	assert.Len(t, store.documents(storage.CollectionConversations), 1)
	assert.Empty(t, store.documents(storage.CollectionKnowledge))
}

func TestStoreMessagePropagatesStorageError(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("disk full")
	kb := newTestKB(t, store, &fakeLLM{response: "[]"})

	_, err := kb.StoreMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSearchReturnsTypedItems(t *testing.T) {
	store := newFakeStore()
	kb := newTestKB(t, store, &fakeLLM{response: extractionResponse})

	result, err := kb.StoreMessage(context.Background(), "I switched to Neovim")
	require.NoError(t, err)

	items, err := kb.Search(context.Background(), "editor")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Editors", items[0].Topic)
	assert.Equal(t, "User switched to Neovim", items[0].Content)
	assert.Equal(t, []string{"neovim", "editor"}, items[0].Keywords)
	assert.Equal(t, 7, items[0].ImportanceScore)
	assert.Equal(t, result.ConversationID, items[0].SourceConversationID)
}

func TestSearchUsesConfiguredDefaultLimit(t *testing.T) {
	store := newFakeStore()
	kb := newTestKB(t, store, &fakeLLM{response: "[]"})

	_, err := kb.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 10, store.lastQueryLimit)

	_, err = kb.Search(context.Background(), "anything", core.WithLimit(3))
	require.NoError(t, err)
	assert.Equal(t, 3, store.lastQueryLimit)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	kb := newTestKB(t, newFakeStore(), &fakeLLM{response: "[]"})

	_, err := kb.Search(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyQuery)
}

func TestStatsCountsBothCollections(t *testing.T) {
	store := newFakeStore()
	kb := newTestKB(t, store, &fakeLLM{response: extractionResponse})

	_, err := kb.StoreMessage(context.Background(), "first message")
	require.NoError(t, err)
	_, err = kb.StoreMessage(context.Background(), "second message")
	require.NoError(t, err)

	stats, err := kb.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalConversations)
	assert.Equal(t, 4, stats.TotalKnowledgeItems)
}

func TestDebugSamplesFirstThreeDocuments(t *testing.T) {
	store := newFakeStore()
	kb := newTestKB(t, store, &fakeLLM{response: "[]"})

	for i := 0; i < 5; i++ {
		_, err := kb.StoreMessage(context.Background(), fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	info, err := kb.Debug(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, info.Conversations.Count)
	assert.Len(t, info.Conversations.Documents, 3)
	assert.Len(t, info.Conversations.Metadatas, 3)
	assert.Equal(t, "message 0", info.Conversations.Documents[0])
	assert.Equal(t, 0, info.Knowledge.Count)
	assert.Empty(t, info.Knowledge.Documents)
}

func TestDebugPropagatesStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.countErr = errors.New("backend unreachable")
	kb := newTestKB(t, store, &fakeLLM{response: "[]"})

	_, err := kb.Debug(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unreachable")
}

func TestCloseRejectsFurtherOperations(t *testing.T) {
	store := newFakeStore()
	kb := newTestKB(t, store, &fakeLLM{response: "[]"})

	require.NoError(t, kb.Close())
	assert.True(t, store.closed)

	_, err := kb.StoreMessage(context.Background(), "too late")
	assert.ErrorIs(t, err, core.ErrClosed)

	_, err = kb.Search(context.Background(), "too late")
	assert.ErrorIs(t, err, core.ErrClosed)

	_, err = kb.Stats(context.Background())
	assert.ErrorIs(t, err, core.ErrClosed)

	// Close is idempotent.
	require.NoError(t, kb.Close())
}

func TestNewRejectsUnknownProviders(t *testing.T) {
	_, err := core.New(&core.Config{
		LLM: core.LLMConfig{Provider: "carrier-pigeon"},
	}, logger.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = core.New(&core.Config{
		Storage: core.StorageConfig{Provider: "floppy"},
	}, logger.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
