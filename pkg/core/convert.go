// Package core provides the main KnowBase client and knowledge accumulation functionality.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knowbase/knowbase-go/pkg/knowledge"
	"github.com/knowbase/knowbase-go/pkg/storage"
)

// conversationToDocument converts a ConversationRecord to a storage.Document.
//
// This function is used internally to convert between package types
// to avoid circular dependencies.
func conversationToDocument(r *ConversationRecord) storage.Document {
	return storage.Document{
		ID:      r.ID,
		Content: r.Text,
		Metadata: map[string]string{
			"user_id":         r.UserID,
			"timestamp":       r.Timestamp.Format(time.RFC3339),
			"conversation_id": r.ID,
		},
	}
}

// knowledgeToDocument converts a KnowledgeItem to a storage.Document.
func knowledgeToDocument(item *KnowledgeItem) storage.Document {
	return storage.Document{
		ID:       item.ID,
		Content:  item.Content,
		Metadata: item.Metadata(),
	}
}

// documentToKnowledge converts a storage.Document back to a KnowledgeItem.
//
// Metadata fields that fail to parse fall back to zero values rather than
// failing the whole conversion.
func documentToKnowledge(doc storage.Document) *KnowledgeItem {
	item := &KnowledgeItem{
		ID:                   doc.ID,
		Content:              doc.Content,
		Topic:                doc.Metadata["topic"],
		UserID:               doc.Metadata["user_id"],
		SourceConversationID: doc.Metadata["source_conversation"],
		ImportanceScore:      knowledge.DefaultImportance,
		Score:                doc.Score,
	}

	if kw := doc.Metadata["keywords"]; kw != "" {
		item.Keywords = strings.Split(kw, ",")
	}
	if raw := doc.Metadata["importance_score"]; raw != "" {
		if score, err := strconv.Atoi(raw); err == nil {
			item.ImportanceScore = score
		}
	}
	if raw := doc.Metadata["timestamp"]; raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			item.Timestamp = ts
		}
	}

	return item
}

// documentsToKnowledge converts a slice of storage.Document to a slice of
// KnowledgeItem.
//
// This function is used internally for batch conversion between package types.
func documentsToKnowledge(docs []storage.Document) []*KnowledgeItem {
	result := make([]*KnowledgeItem, len(docs))
	for i, doc := range docs {
		result[i] = documentToKnowledge(doc)
	}
	return result
}

// fromExtractedItem converts a knowledge.Item candidate into a persistable
// KnowledgeItem bound to its source conversation.
//
// The item ID encodes the conversation and the item's position within the
// extraction batch: "{conversation_id}_knowledge_{index}".
func fromExtractedItem(candidate knowledge.Item, conversationID string, index int, userID string, ts time.Time) *KnowledgeItem {
	return &KnowledgeItem{
		ID:                   fmt.Sprintf("%s_knowledge_%d", conversationID, index),
		Topic:                candidate.Topic,
		Content:              candidate.Content,
		Keywords:             candidate.Keywords,
		ImportanceScore:      candidate.ImportanceScore,
		UserID:               userID,
		Timestamp:            ts,
		SourceConversationID: conversationID,
	}
}
