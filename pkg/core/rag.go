package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/knowbase/knowbase-go/pkg/storage"
)

// noKnowledgeResponse is returned when retrieval finds nothing to ground
// an answer on.
const noKnowledgeResponse = "I don't have any relevant information about that topic yet."

// answerErrorFormat wraps any failure on the answer path into the reply text.
const answerErrorFormat = "Error querying knowledge base: %v"

// answerPromptTemplate grounds the generation step in retrieved knowledge.
// Format arguments: the joined context block, then the question.
const answerPromptTemplate = `Based on the following knowledge from previous conversations, answer the user's question.
If the information isn't available in the context, say so clearly.

Context:
%s

User Question: %s

Answer:`

// Answer answers a question using retrieval-augmented generation over the
// accumulated knowledge.
//
// The method:
//  1. Retrieves the top-K most similar knowledge items for the question
//  2. Joins their contents into a context block
//  3. Asks the LLM to answer the question grounded in that context
//
// Answer never fails: when nothing relevant is stored it returns a fixed
// fallback sentence, and any retrieval or generation error is folded into
// the reply text. Callers that need errors should use Search directly.
//
// Parameters:
//   - ctx: Context for cancellation
//   - query: The question to answer
//   - opts: Optional parameters (TopK)
//
// Example:
//
//	answer := kb.Answer(ctx, "which Postgres version added pg_stat_io?")
func (kb *KnowledgeBase) Answer(ctx context.Context, query string, opts ...QueryOption) string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if kb.closed {
		return fmt.Sprintf(answerErrorFormat, ErrClosed)
	}
	if query == "" {
		return fmt.Sprintf(answerErrorFormat, ErrEmptyQuery)
	}

	queryOpts := applyQueryOptions(opts)
	topK := queryOpts.TopK
	if topK <= 0 {
		topK = kb.config.RAG.TopK
	}

	docs, err := kb.storage.Query(ctx, storage.CollectionKnowledge, query, topK)
	if err != nil {
		kb.log.Error("knowledge retrieval failed", "query", query, "error", err)
		return fmt.Sprintf(answerErrorFormat, err)
	}

	if len(docs) == 0 {
		return noKnowledgeResponse
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	prompt := fmt.Sprintf(answerPromptTemplate, strings.Join(contents, "\n"), query)

	response, err := kb.llm.Generate(ctx, prompt)
	if err != nil {
		kb.log.Error("answer generation failed", "query", query, "error", err)
		return fmt.Sprintf(answerErrorFormat, err)
	}

	kb.log.Debug("answered question", "query", query, "retrieved", len(docs))

	return response
}
