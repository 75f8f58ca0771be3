package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knowbase/knowbase-go/pkg/embedder"
	ollamaEmbedder "github.com/knowbase/knowbase-go/pkg/embedder/ollama"
	openaiEmbedder "github.com/knowbase/knowbase-go/pkg/embedder/openai"
	"github.com/knowbase/knowbase-go/pkg/knowledge"
	"github.com/knowbase/knowbase-go/pkg/llm"
	ollamaLLM "github.com/knowbase/knowbase-go/pkg/llm/ollama"
	openaiLLM "github.com/knowbase/knowbase-go/pkg/llm/openai"
	"github.com/knowbase/knowbase-go/pkg/logger"
	"github.com/knowbase/knowbase-go/pkg/storage"
	chromemStore "github.com/knowbase/knowbase-go/pkg/storage/chromem"
	postgresStore "github.com/knowbase/knowbase-go/pkg/storage/postgres"
	sqliteStore "github.com/knowbase/knowbase-go/pkg/storage/sqlite"
)

// debugSampleSize is how many documents Debug samples per collection.
const debugSampleSize = 3

// KnowledgeBase is the main client for personal knowledge accumulation.
//
// It provides a complete interface for turning raw conversation messages
// into searchable structured knowledge:
//   - Raw messages are stored verbatim, then mined for knowledge items
//   - Knowledge items are persisted to a vector store for similarity search
//   - Questions are answered with retrieval-augmented generation over the
//     accumulated knowledge
//
// The client is thread-safe and can be used concurrently from multiple goroutines.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	kb, _ := core.New(config, log)
//	defer kb.Close()
//
//	result, _ := kb.StoreMessage(ctx, "I switched my editor to Neovim last month",
//	    core.WithUserID("user_001"),
//	)
//	answer := kb.Answer(ctx, "what editor do I use?")
type KnowledgeBase struct {
	// config contains the client configuration.
	config *Config

	// storage is the vector store holding conversations and knowledge.
	storage storage.VectorStore

	// llm is the generation provider for extraction and answering.
	llm llm.Provider

	// embedder is the embedding provider handed to the store (nil when
	// the store was supplied pre-wired).
	embedder embedder.Provider

	// extractor mines structured knowledge from raw messages.
	extractor *knowledge.Extractor

	// log is the structured logger.
	log *logger.Logger

	// closed is set once Close has run.
	closed bool

	// mu protects concurrent access to the client.
	mu sync.RWMutex
}

// New creates a new KnowledgeBase from configuration.
//
// The client is initialized with:
//   - Vector store (chromem, SQLite, or PostgreSQL)
//   - LLM provider (Ollama, OpenAI)
//   - Embedding provider (Ollama, OpenAI)
//
// Zero-valued config fields receive defaults before validation, so a
// minimal Config works out of the box. A nil logger falls back to a
// no-op logger.
//
// Example:
//
//	kb, err := core.New(&core.Config{
//	    LLM:     core.LLMConfig{Provider: "ollama", Model: "llama3.1"},
//	    Storage: core.StorageConfig{Provider: "chromem", Path: "./knowledge_db"},
//	}, log)
func New(cfg *Config, log *logger.Logger) (*KnowledgeBase, error) {
	if log == nil {
		log = logger.NewNop()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedderProvider, err := initEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(cfg.Storage, embedderProvider)
	if err != nil {
		return nil, err
	}

	llmProvider, err := initLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}

	return &KnowledgeBase{
		config:    cfg,
		storage:   store,
		llm:       llmProvider,
		embedder:  embedderProvider,
		extractor: knowledge.NewExtractor(llmProvider, log),
		log:       log,
	}, nil
}

// NewFromComponents creates a KnowledgeBase from pre-built components.
//
// The store arrives already wired to its embedder, so no embedding
// provider is constructed here. Useful for tests and for callers that
// need custom provider setups.
func NewFromComponents(cfg *Config, store storage.VectorStore, llmProvider llm.Provider, log *logger.Logger) (*KnowledgeBase, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &KnowledgeBase{
		config:    cfg,
		storage:   store,
		llm:       llmProvider,
		extractor: knowledge.NewExtractor(llmProvider, log),
		log:       log,
	}, nil
}

// StoreMessage stores a raw conversation message and mines it for knowledge.
//
// The method:
//  1. Persists the raw message to the conversations collection
//  2. Runs LLM knowledge extraction over the message
//  3. Persists each extracted item to the knowledge collection
//
// Extraction failures are not errors: a message that yields no knowledge
// is still stored and reported with ItemsExtracted == 0. Storage failures
// are errors.
//
// Parameters:
//   - ctx: Context for cancellation
//   - message: Raw conversation text
//   - opts: Optional parameters (UserID)
//
// Returns the conversation ID and extraction count, or an error if
// persistence fails.
//
// Example:
//
//	result, err := kb.StoreMessage(ctx, "PostgreSQL 16 added pg_stat_io",
//	    core.WithUserID("user_001"),
//	)
func (kb *KnowledgeBase) StoreMessage(ctx context.Context, message string, opts ...StoreOption) (*StoreResult, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if kb.closed {
		return nil, NewKnowledgeError("StoreMessage", ErrClosed)
	}
	if message == "" {
		return nil, NewKnowledgeError("StoreMessage", ErrEmptyMessage)
	}

	storeOpts := applyStoreOptions(opts)

	record := &ConversationRecord{
		ID:        uuid.NewString(),
		Text:      message,
		UserID:    storeOpts.UserID,
		Timestamp: time.Now().UTC(),
	}

	if err := kb.storage.Insert(ctx, storage.CollectionConversations, conversationToDocument(record)); err != nil {
		return nil, NewKnowledgeError("StoreMessage", err)
	}

	items := kb.extractor.Extract(ctx, message)

	for i, candidate := range items {
		item := fromExtractedItem(candidate, record.ID, i, storeOpts.UserID, time.Now().UTC())
		if err := kb.storage.Insert(ctx, storage.CollectionKnowledge, knowledgeToDocument(item)); err != nil {
			return nil, NewKnowledgeError("StoreMessage", err)
		}
	}

	kb.log.Debug("stored message",
		"conversation_id", record.ID,
		"user_id", storeOpts.UserID,
		"knowledge_items", len(items),
	)

	return &StoreResult{
		ConversationID: record.ID,
		ItemsExtracted: len(items),
	}, nil
}

// Search searches the knowledge collection by vector similarity.
//
// Results are sorted by relevance (highest first). The limit defaults to
// the configured SearchLimit.
//
// Parameters:
//   - ctx: Context for cancellation
//   - query: Search query (text string)
//   - opts: Optional parameters (Limit)
//
// Example:
//
//	results, err := kb.Search(ctx, "database tuning", core.WithLimit(20))
func (kb *KnowledgeBase) Search(ctx context.Context, query string, opts ...SearchOption) ([]*KnowledgeItem, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if kb.closed {
		return nil, NewKnowledgeError("Search", ErrClosed)
	}
	if query == "" {
		return nil, NewKnowledgeError("Search", ErrEmptyQuery)
	}

	searchOpts := applySearchOptions(opts)
	limit := searchOpts.Limit
	if limit <= 0 {
		limit = kb.config.RAG.SearchLimit
	}

	docs, err := kb.storage.Query(ctx, storage.CollectionKnowledge, query, limit)
	if err != nil {
		return nil, NewKnowledgeError("Search", err)
	}

	return documentsToKnowledge(docs), nil
}

// Stats returns counts for both collections.
func (kb *KnowledgeBase) Stats(ctx context.Context) (*Stats, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if kb.closed {
		return nil, NewKnowledgeError("Stats", ErrClosed)
	}

	conversations, err := kb.storage.Count(ctx, storage.CollectionConversations)
	if err != nil {
		return nil, NewKnowledgeError("Stats", err)
	}

	knowledgeItems, err := kb.storage.Count(ctx, storage.CollectionKnowledge)
	if err != nil {
		return nil, NewKnowledgeError("Stats", err)
	}

	return &Stats{
		TotalConversations:  conversations,
		TotalKnowledgeItems: knowledgeItems,
	}, nil
}

// Debug returns a sampled view of both collections: total counts plus the
// first few documents and their metadata.
func (kb *KnowledgeBase) Debug(ctx context.Context) (*DebugInfo, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if kb.closed {
		return nil, NewKnowledgeError("Debug", ErrClosed)
	}

	conversations, err := kb.collectionDebug(ctx, storage.CollectionConversations)
	if err != nil {
		return nil, NewKnowledgeError("Debug", err)
	}

	knowledgeInfo, err := kb.collectionDebug(ctx, storage.CollectionKnowledge)
	if err != nil {
		return nil, NewKnowledgeError("Debug", err)
	}

	return &DebugInfo{
		Conversations: conversations,
		Knowledge:     knowledgeInfo,
	}, nil
}

// collectionDebug samples one collection for Debug.
func (kb *KnowledgeBase) collectionDebug(ctx context.Context, collection string) (CollectionDebug, error) {
	count, err := kb.storage.Count(ctx, collection)
	if err != nil {
		return CollectionDebug{}, err
	}

	docs, err := kb.storage.List(ctx, collection, debugSampleSize)
	if err != nil {
		return CollectionDebug{}, err
	}

	info := CollectionDebug{
		Count:     count,
		Documents: make([]string, 0, len(docs)),
		Metadatas: make([]map[string]string, 0, len(docs)),
	}
	for _, doc := range docs {
		info.Documents = append(info.Documents, doc.Content)
		info.Metadatas = append(info.Metadatas, doc.Metadata)
	}

	return info, nil
}

// Close closes the client and releases all resources.
//
// This method:
//   - Closes the vector store connection
//   - Closes the LLM provider
//   - Closes the embedder provider (when owned by this client)
//
// Returns the first error encountered during cleanup, or nil if all
// resources were closed successfully. Subsequent operations fail with
// ErrClosed.
//
// Example:
//
//	defer kb.Close()
func (kb *KnowledgeBase) Close() error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if kb.closed {
		return nil
	}
	kb.closed = true

	var errs []error

	if kb.storage != nil {
		if err := kb.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if kb.llm != nil {
		if err := kb.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if kb.embedder != nil {
		if err := kb.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}

	return nil
}

// initStorage initializes the storage backend.
func initStorage(cfg StorageConfig, emb embedder.Provider) (storage.VectorStore, error) {
	switch cfg.Provider {
	case "chromem":
		return chromemStore.NewClient(&chromemStore.Config{
			Path:     cfg.Path,
			Embedder: emb,
		})
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath:   cfg.DBPath,
			Embedder: emb,
		})
	case "postgres":
		return postgresStore.NewClient(&postgresStore.Config{
			DSN:      cfg.DSN,
			Embedder: emb,
		})
	default:
		return nil, NewKnowledgeError("initStorage", ErrInvalidConfig)
	}
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "openai":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewKnowledgeError("initLLM", ErrInvalidConfig)
	}
}

// initEmbedder initializes the embedder provider.
func initEmbedder(cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamaEmbedder.NewClient(&ollamaEmbedder.Config{
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "openai":
		return openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, NewKnowledgeError("initEmbedder", ErrInvalidConfig)
	}
}
