// Package core provides the main KnowBase client and knowledge accumulation functionality.
package core

// StoreOption is a function type for configuring StoreMessage operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type StoreOption func(*StoreOptions)

// StoreOptions contains configuration options for StoreMessage operations.
type StoreOptions struct {
	// UserID identifies the user who sent the message.
	// Default: "default"
	UserID string
}

// WithUserID sets the user ID for StoreMessage operations.
//
// Example:
//
//	result, _ := kb.StoreMessage(ctx, "I prefer tabs over spaces", core.WithUserID("user_001"))
func WithUserID(userID string) StoreOption {
	return func(opts *StoreOptions) {
		opts.UserID = userID
	}
}

// QueryOption is a function type for configuring Answer operations.
type QueryOption func(*QueryOptions)

// QueryOptions contains configuration options for Answer operations.
type QueryOptions struct {
	// TopK is the number of knowledge items retrieved to ground the answer.
	// Zero means the configured default (RAGConfig.TopK).
	TopK int
}

// WithTopK sets the number of retrieved knowledge items for Answer operations.
//
// Example:
//
//	answer := kb.Answer(ctx, "what editor do I use?", core.WithTopK(3))
func WithTopK(k int) QueryOption {
	return func(opts *QueryOptions) {
		opts.TopK = k
	}
}

// SearchOption is a function type for configuring Search operations.
type SearchOption func(*SearchOptions)

// SearchOptions contains configuration options for Search operations.
type SearchOptions struct {
	// Limit sets the maximum number of results to return.
	// Zero means the configured default (RAGConfig.SearchLimit).
	Limit int
}

// WithLimit sets the maximum number of results for Search operations.
//
// Example:
//
//	results, _ := kb.Search(ctx, "golang", core.WithLimit(20))
func WithLimit(limit int) SearchOption {
	return func(opts *SearchOptions) {
		opts.Limit = limit
	}
}

// applyStoreOptions applies StoreMessage options to create StoreOptions.
func applyStoreOptions(opts []StoreOption) *StoreOptions {
	options := &StoreOptions{
		UserID: DefaultUserID,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applyQueryOptions applies Answer options to create QueryOptions.
func applyQueryOptions(opts []QueryOption) *QueryOptions {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applySearchOptions applies Search options to create SearchOptions.
func applySearchOptions(opts []SearchOption) *SearchOptions {
	options := &SearchOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
