// Package ollama implements embedder.Provider against the Ollama
// embeddings API. This is the default embedding backend, pairing with
// the Ollama generation client for a fully local deployment.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL    = "http://localhost:11434"
	defaultModel      = "nomic-embed-text"
	defaultDimensions = 768
)

// Client talks to the Ollama embeddings API.
type Client struct {
	client     *http.Client
	model      string
	baseURL    string
	dimensions int
}

// Config configures the Ollama embedder.
//
// Model defaults to "nomic-embed-text" (768 dimensions). Dimensions only
// needs to be set when a different embedding model is configured.
type Config struct {
	Model      string
	BaseURL    string
	Dimensions int
	HTTPClient *http.Client
}

// NewClient creates an Ollama embedder from cfg.
func NewClient(cfg *Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = defaultDimensions
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 60 * time.Second,
		}
	}

	return &Client{
		client:     client,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
	}, nil
}

// Embed converts a single text into a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := map[string]interface{}{
		"model":  c.model,
		"prompt": text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embeddings", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(response.Embedding) == 0 {
		return nil, errors.New("embedding generation failed: empty embedding from Ollama API")
	}

	return response.Embedding, nil
}

// EmbedBatch converts multiple texts into vectors. The Ollama embeddings
// endpoint takes one prompt per request, so this issues sequential calls.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		embedding, err := c.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the vector dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op; the underlying http.Client needs no teardown.
func (c *Client) Close() error {
	return nil
}
