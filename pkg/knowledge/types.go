// Package knowledge turns free-form conversation text into structured
// knowledge items: it builds the extraction prompt, invokes the
// generation provider, and tolerantly parses the model's response.
package knowledge

// Bounds for the importance score carried by every knowledge item.
// Values coerced outside the range fall back to DefaultImportance.
const (
	MinImportance     = 1
	MaxImportance     = 10
	DefaultImportance = 5
)

// defaultTopic labels items whose topic the model omitted.
const defaultTopic = "Unknown"

// Item is a single knowledge candidate extracted from a conversation.
//
// Items carry only what the model produced; the caller enriches them
// with identity, ownership and provenance before persisting.
type Item struct {
	// Topic is a short label for the knowledge.
	Topic string `json:"topic"`

	// Content is the factual statement itself.
	Content string `json:"content"`

	// Keywords are search terms attached by the model. May be empty.
	Keywords []string `json:"keywords"`

	// ImportanceScore ranks the knowledge from MinImportance to
	// MaxImportance.
	ImportanceScore int `json:"importance_score"`
}
