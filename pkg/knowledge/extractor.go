package knowledge

import (
	"context"
	"fmt"

	"github.com/knowbase/knowbase-go/pkg/llm"
	"github.com/knowbase/knowbase-go/pkg/logger"
)

// Extractor extracts knowledge items from conversation text using an
// LLM provider.
//
// Extraction is best-effort by contract: a provider failure or an
// unparseable response yields an empty result, never an error, so that
// storing the raw conversation is never blocked by a flaky model.
//
// Example usage:
//
//	extractor := NewExtractor(provider, log)
//	items := extractor.Extract(ctx, "I use PostgreSQL 16 in production.")
type Extractor struct {
	llm    llm.Provider
	parser *Parser
	log    *logger.Logger

	// promptTemplate overrides the default extraction prompt when
	// non-empty. Must contain one %s placeholder for the conversation.
	promptTemplate string
}

// NewExtractor creates an extractor with the default prompt.
func NewExtractor(provider llm.Provider, log *logger.Logger) *Extractor {
	return NewExtractorWithPrompt(provider, "", log)
}

// NewExtractorWithPrompt creates an extractor with a custom prompt
// template. An empty template selects the default.
func NewExtractorWithPrompt(provider llm.Provider, promptTemplate string, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Extractor{
		llm:            provider,
		parser:         NewParser(log),
		log:            log,
		promptTemplate: promptTemplate,
	}
}

// Extract runs one extraction round trip over the conversation text and
// returns the parsed knowledge items.
//
// Any provider failure (timeout, connection refused, model missing) is
// logged and swallowed; the caller always gets a usable, possibly
// empty, slice.
func (e *Extractor) Extract(ctx context.Context, conversationText string) []Item {
	prompt := e.buildPrompt(conversationText)

	response, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		e.log.Warn("knowledge extraction failed", "error", err)
		return nil
	}

	return e.parser.Parse(response)
}

// buildPrompt embeds the conversation text into the extraction prompt.
func (e *Extractor) buildPrompt(conversationText string) string {
	template := e.promptTemplate
	if template == "" {
		template = extractionPromptTemplate
	}
	return fmt.Sprintf(template, conversationText)
}
