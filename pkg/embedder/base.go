// Package embedder defines the text-embedding provider interface used by
// the vector store backends.
package embedder

import "context"

// Provider is the interface every embedding backend implements.
type Provider interface {
	// Embed converts a text string into a vector embedding.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - text: The input text to embed
	//
	// Returns the embedding vector and any error.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple text strings into vector embeddings.
	//
	// More efficient than calling Embed in a loop when the backend
	// supports batched requests.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - texts: Slice of input texts to embed
	//
	// Returns a slice of embedding vectors and any error.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimension of vectors produced by this provider.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}
