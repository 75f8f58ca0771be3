// Package storage defines the vector store interface behind which the
// knowledge pipeline persists raw conversations and extracted knowledge.
//
// A store holds independent named collections of documents. The two
// collections used by the pipeline are CollectionConversations and
// CollectionKnowledge; backends must not assume any others exist.
package storage

import "context"

// Collection names used by the knowledge pipeline.
const (
	// CollectionConversations holds raw inbound messages.
	CollectionConversations = "conversations"

	// CollectionKnowledge holds extracted knowledge items.
	CollectionKnowledge = "knowledge_base"
)

// Document is a stored (text, metadata) pair.
//
// Metadata values are flat strings; callers flatten structured fields
// (keyword lists, scores, timestamps) before insert.
type Document struct {
	// ID is the unique identifier within a collection.
	ID string

	// Content is the document text; queries rank against its embedding.
	Content string

	// Metadata contains flattened structured fields.
	Metadata map[string]string

	// Score is the similarity score set on query results, in [0,1] with
	// 1 meaning identical. Zero for documents returned by List.
	Score float64
}

// VectorStore is the interface every storage backend implements.
//
// All backends (chromem, SQLite, PostgreSQL) embed document text through
// an embedder.Provider supplied at construction; callers pass plain text.
// Duplicate-insert behavior is backend-defined.
type VectorStore interface {
	// Insert stores doc in the named collection.
	Insert(ctx context.Context, collection string, doc Document) error

	// Query returns up to limit documents most similar to the query
	// text, best first. An empty collection yields an empty result,
	// not an error.
	Query(ctx context.Context, collection, query string, limit int) ([]Document, error)

	// Count returns the number of documents in the named collection.
	Count(ctx context.Context, collection string) (int, error)

	// List returns up to limit documents in insertion order.
	// limit <= 0 returns all documents.
	List(ctx context.Context, collection string, limit int) ([]Document, error)

	// Close closes the store and releases resources.
	Close() error
}
