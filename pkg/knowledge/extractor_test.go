package knowledge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowbase/knowbase-go/pkg/knowledge"
	"github.com/knowbase/knowbase-go/pkg/llm"
)

// mockProvider is a scripted llm.Provider for extractor tests.
type mockProvider struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockProvider) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages")
	}
	return m.Generate(ctx, messages[len(messages)-1].Content, opts...)
}

func (m *mockProvider) Close() error { return nil }

func TestExtractParsesProviderResponse(t *testing.T) {
	provider := &mockProvider{
		response: "```json\n[{\"topic\": \"Infra\", \"content\": \"The staging cluster runs on k3s\", \"keywords\": [\"staging\", \"k3s\"], \"importance_score\": 6}]\n```",
	}
	extractor := knowledge.NewExtractor(provider, nil)

	items := extractor.Extract(context.Background(), "our staging cluster runs on k3s")

	require.Len(t, items, 1)
	assert.Equal(t, "Infra", items[0].Topic)
	assert.Equal(t, 6, items[0].ImportanceScore)
	assert.Equal(t, 1, provider.calls)
}

func TestExtractEmbedsConversationInPrompt(t *testing.T) {
	provider := &mockProvider{response: "[]"}
	extractor := knowledge.NewExtractor(provider, nil)

	extractor.Extract(context.Background(), "the deploy pipeline uses ArgoCD")

	assert.Contains(t, provider.lastPrompt, "the deploy pipeline uses ArgoCD")
	assert.Contains(t, provider.lastPrompt, "JSON array")
	assert.Contains(t, provider.lastPrompt, "importance_score")
}

func TestExtractProviderFailureReturnsEmpty(t *testing.T) {
	provider := &mockProvider{err: errors.New("connection refused")}
	extractor := knowledge.NewExtractor(provider, nil)

	items := extractor.Extract(context.Background(), "anything")

	assert.Empty(t, items)
}

func TestExtractNonJSONResponseReturnsEmpty(t *testing.T) {
	provider := &mockProvider{response: "I'm sorry, I can't produce structured output today."}
	extractor := knowledge.NewExtractor(provider, nil)

	items := extractor.Extract(context.Background(), "anything")

	assert.Empty(t, items)
}

func TestExtractWithCustomPrompt(t *testing.T) {
	provider := &mockProvider{response: "[]"}
	extractor := knowledge.NewExtractorWithPrompt(provider, "List facts from: %s", nil)

	extractor.Extract(context.Background(), "custom input")

	assert.Equal(t, "List facts from: custom input", provider.lastPrompt)
}
