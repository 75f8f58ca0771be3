// Package core provides the main KnowBase client and knowledge accumulation functionality.
package core

import (
	"strconv"
	"strings"
	"time"
)

// DefaultUserID is assigned to conversations stored without an explicit user.
const DefaultUserID = "default"

// ConversationRecord represents a raw conversation message stored in the system.
//
// Every message handed to StoreMessage is persisted verbatim before any
// knowledge extraction runs, so the original text survives even when the
// extraction step produces nothing.
//
// Example:
//
//	record := &core.ConversationRecord{
//	    ID:     "550e8400-e29b-41d4-a716-446655440000",
//	    Text:   "I learned that Go maps are not safe for concurrent writes",
//	    UserID: "user_001",
//	}
type ConversationRecord struct {
	// ID is the unique conversation identifier (a UUID).
	ID string `json:"conversation_id"`

	// Text is the raw message content.
	Text string `json:"text"`

	// UserID identifies the user who sent the message.
	UserID string `json:"user_id"`

	// Timestamp is when the message was stored.
	Timestamp time.Time `json:"timestamp"`
}

// KnowledgeItem represents a single piece of structured knowledge extracted
// from a conversation.
//
// Items are produced by the extraction pipeline and persisted to the
// knowledge collection, keyed by their source conversation.
type KnowledgeItem struct {
	// ID is the unique item identifier, derived from the source
	// conversation: "{conversation_id}_knowledge_{index}".
	ID string `json:"id"`

	// Topic is a short subject line for the knowledge.
	Topic string `json:"topic"`

	// Content is the knowledge text itself. This is the searchable body.
	Content string `json:"content"`

	// Keywords aid retrieval and filtering.
	Keywords []string `json:"keywords,omitempty"`

	// ImportanceScore ranks the knowledge from 1 (trivial) to 10 (critical).
	ImportanceScore int `json:"importance_score"`

	// UserID identifies the user the knowledge was learned from.
	UserID string `json:"user_id"`

	// Timestamp is when the knowledge was stored.
	Timestamp time.Time `json:"timestamp"`

	// SourceConversationID links back to the originating conversation.
	SourceConversationID string `json:"source_conversation"`

	// Score is the similarity score from search operations (0.0-1.0).
	// Higher scores indicate better matches.
	Score float64 `json:"score,omitempty"`
}

// Metadata returns the item's flat metadata representation, the same
// shape it is persisted and served with. Keywords collapse to a single
// comma-joined value.
func (k *KnowledgeItem) Metadata() map[string]string {
	return map[string]string{
		"topic":               k.Topic,
		"keywords":            strings.Join(k.Keywords, ","),
		"importance_score":    strconv.Itoa(k.ImportanceScore),
		"user_id":             k.UserID,
		"timestamp":           k.Timestamp.Format(time.RFC3339),
		"source_conversation": k.SourceConversationID,
	}
}

// StoreResult contains the outcome of a StoreMessage operation.
type StoreResult struct {
	// ConversationID is the identifier assigned to the stored message.
	ConversationID string `json:"conversation_id"`

	// ItemsExtracted is the number of knowledge items extracted and stored.
	ItemsExtracted int `json:"knowledge_items_extracted"`
}

// Stats contains database statistics.
type Stats struct {
	// TotalConversations is the number of stored conversation records.
	TotalConversations int `json:"total_conversations"`

	// TotalKnowledgeItems is the number of stored knowledge items.
	TotalKnowledgeItems int `json:"total_knowledge_items"`
}

// CollectionDebug is a sampled view of one collection for inspection.
type CollectionDebug struct {
	// Count is the total number of documents in the collection.
	Count int `json:"count"`

	// Documents holds the first few stored document contents.
	Documents []string `json:"documents"`

	// Metadatas holds the metadata for the sampled documents.
	Metadatas []map[string]string `json:"metadatas"`
}

// DebugInfo is a sampled view of everything stored, for inspection.
type DebugInfo struct {
	// Conversations samples the raw conversation collection.
	Conversations CollectionDebug `json:"conversations"`

	// Knowledge samples the extracted knowledge collection.
	Knowledge CollectionDebug `json:"knowledge"`
}
