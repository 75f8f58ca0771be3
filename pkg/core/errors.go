// Package core provides the main KnowBase client and knowledge accumulation functionality.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyMessage indicates that an inbound message had no text.
	ErrEmptyMessage = errors.New("empty message")

	// ErrEmptyQuery indicates that a search or query had no text.
	ErrEmptyQuery = errors.New("empty query")

	// ErrConnectionFailed indicates that a connection to the storage backend failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrLLMOperation indicates that an LLM operation failed.
	ErrLLMOperation = errors.New("llm operation failed")

	// ErrClosed indicates an operation on a closed KnowledgeBase.
	ErrClosed = errors.New("knowledge base is closed")
)

// KnowledgeError wraps errors with operation context.
//
// It records which operation failed, making error messages more
// informative for debugging.
//
// Example:
//
//	err := &KnowledgeError{
//	    Op:  "StoreMessage",
//	    Err: ErrStorageOperation,
//	}
//	// Error() returns: "knowbase: StoreMessage: storage operation failed"
type KnowledgeError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "knowbase: <Op>: <Err>"
func (e *KnowledgeError) Error() string {
	return fmt.Sprintf("knowbase: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with KnowledgeError.
func (e *KnowledgeError) Unwrap() error {
	return e.Err
}

// NewKnowledgeError creates a new KnowledgeError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err := kb.store.Insert(ctx, col, doc); err != nil {
//	    return NewKnowledgeError("StoreMessage", err)
//	}
//
// Parameters:
//   - op: Name of the operation (e.g., "StoreMessage", "Search", "Stats")
//   - err: The underlying error to wrap
//
// Returns a KnowledgeError, or nil if err is nil.
func NewKnowledgeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &KnowledgeError{
		Op:  op,
		Err: err,
	}
}
