// Package core provides the main KnowBase client and knowledge accumulation functionality.
package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/knowbase/knowbase-go/pkg/llm"
	"github.com/knowbase/knowbase-go/pkg/logger"
	"github.com/knowbase/knowbase-go/pkg/storage"
)

// defaultAsyncWorkers is the worker pool size for AsyncKnowledgeBase.
const defaultAsyncWorkers = 4

// AsyncKnowledgeBase provides asynchronous knowledge base operations.
//
// It wraps the synchronous KnowledgeBase and executes operations on a
// fixed worker pool, making it suitable for callers that ingest many
// messages concurrently without spawning a goroutine per call.
//
// All async methods return channels that receive the result when the
// operation completes. Wait blocks until all submitted operations finish.
//
// Example:
//
//	akb, _ := core.NewAsync(config, log)
//	defer akb.Close()
//
//	resultChan := akb.StoreMessageAsync(ctx, "Redis streams support consumer groups")
//	result := <-resultChan
//	if result.Error != nil {
//	    log.Fatal(result.Error)
//	}
type AsyncKnowledgeBase struct {
	*KnowledgeBase

	// jobs feeds the worker pool.
	jobs chan func()

	// wg tracks submitted, not yet finished operations.
	wg sync.WaitGroup

	// workerWG tracks the worker goroutines themselves.
	workerWG sync.WaitGroup

	// stopping blocks new submissions once Close has begun.
	stopping bool

	// submitMu guards stopping against concurrent submissions.
	submitMu sync.RWMutex
}

// NewAsync creates a new asynchronous knowledge base client.
//
// Parameters:
//   - cfg: KnowledgeBase configuration
//   - log: Structured logger (nil for no-op)
//
// Returns:
//   - *AsyncKnowledgeBase: The asynchronous client instance
//   - error: Error if configuration is invalid or initialization fails
func NewAsync(cfg *Config, log *logger.Logger) (*AsyncKnowledgeBase, error) {
	kb, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return newAsyncFrom(kb), nil
}

// NewAsyncFromComponents creates an asynchronous client around pre-built
// components, mirroring NewFromComponents.
func NewAsyncFromComponents(cfg *Config, store storage.VectorStore, llmProvider llm.Provider, log *logger.Logger) (*AsyncKnowledgeBase, error) {
	kb, err := NewFromComponents(cfg, store, llmProvider, log)
	if err != nil {
		return nil, err
	}
	return newAsyncFrom(kb), nil
}

// newAsyncFrom starts the worker pool around an existing client.
func newAsyncFrom(kb *KnowledgeBase) *AsyncKnowledgeBase {
	akb := &AsyncKnowledgeBase{
		KnowledgeBase: kb,
		jobs:          make(chan func(), defaultAsyncWorkers),
	}

	akb.workerWG.Add(defaultAsyncWorkers)
	for i := 0; i < defaultAsyncWorkers; i++ {
		go func() {
			defer akb.workerWG.Done()
			for job := range akb.jobs {
				job()
			}
		}()
	}

	return akb
}

// submit enqueues a job on the worker pool. Returns false when the client
// is shutting down and the job was not accepted.
func (akb *AsyncKnowledgeBase) submit(job func()) bool {
	akb.submitMu.RLock()
	defer akb.submitMu.RUnlock()

	if akb.stopping {
		return false
	}

	akb.wg.Add(1)
	akb.jobs <- func() {
		defer akb.wg.Done()
		job()
	}
	return true
}

// StoreMessageAsync stores a message asynchronously.
//
// The operation executes on the worker pool and returns its result via a
// channel.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - message: Raw conversation text
//   - opts: Optional store options (UserID)
//
// Returns:
//   - <-chan *StoreMessageResult: Channel that receives the result containing StoreResult and error
func (akb *AsyncKnowledgeBase) StoreMessageAsync(ctx context.Context, message string, opts ...StoreOption) <-chan *StoreMessageResult {
	resultChan := make(chan *StoreMessageResult, 1)

	accepted := akb.submit(func() {
		result, err := akb.StoreMessage(ctx, message, opts...)
		resultChan <- &StoreMessageResult{
			Result: result,
			Error:  err,
		}
		close(resultChan)
	})
	if !accepted {
		resultChan <- &StoreMessageResult{
			Error: NewKnowledgeError("StoreMessageAsync", ErrClosed),
		}
		close(resultChan)
	}

	return resultChan
}

// AnswerAsync answers a question asynchronously.
//
// Like Answer, the result is always a reply string: retrieval and
// generation failures are folded into the text.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - query: The question to answer
//   - opts: Optional query options (TopK)
//
// Returns:
//   - <-chan string: Channel that receives the reply text
func (akb *AsyncKnowledgeBase) AnswerAsync(ctx context.Context, query string, opts ...QueryOption) <-chan string {
	resultChan := make(chan string, 1)

	accepted := akb.submit(func() {
		resultChan <- akb.Answer(ctx, query, opts...)
		close(resultChan)
	})
	if !accepted {
		resultChan <- fmt.Sprintf(answerErrorFormat, ErrClosed)
		close(resultChan)
	}

	return resultChan
}

// SearchAsync searches the knowledge collection asynchronously.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - query: Search query text
//   - opts: Optional search options (Limit)
//
// Returns:
//   - <-chan *AsyncSearchResult: Channel that receives search results containing items and error
func (akb *AsyncKnowledgeBase) SearchAsync(ctx context.Context, query string, opts ...SearchOption) <-chan *AsyncSearchResult {
	resultChan := make(chan *AsyncSearchResult, 1)

	accepted := akb.submit(func() {
		items, err := akb.Search(ctx, query, opts...)
		resultChan <- &AsyncSearchResult{
			Items: items,
			Error: err,
		}
		close(resultChan)
	})
	if !accepted {
		resultChan <- &AsyncSearchResult{
			Error: NewKnowledgeError("SearchAsync", ErrClosed),
		}
		close(resultChan)
	}

	return resultChan
}

// Wait waits for all asynchronous operations to complete.
//
// This method blocks until every submitted operation has finished. It
// does not stop the workers; new operations can still be submitted.
func (akb *AsyncKnowledgeBase) Wait() {
	akb.wg.Wait()
}

// Close closes the asynchronous client.
//
// It stops accepting new operations, waits for in-flight operations to
// complete, shuts down the worker pool, then closes the underlying client.
func (akb *AsyncKnowledgeBase) Close() error {
	akb.submitMu.Lock()
	alreadyStopping := akb.stopping
	akb.stopping = true
	akb.submitMu.Unlock()

	if !alreadyStopping {
		akb.wg.Wait()
		close(akb.jobs)
		akb.workerWG.Wait()
	}

	return akb.KnowledgeBase.Close()
}

// StoreMessageResult contains the result of an asynchronous StoreMessage
// operation.
type StoreMessageResult struct {
	// Result is the store outcome (nil if an error occurred).
	Result *StoreResult

	// Error is the error returned by the operation (nil if it succeeded).
	Error error
}

// AsyncSearchResult contains the result of an asynchronous search operation.
type AsyncSearchResult struct {
	// Items is the list of matching knowledge items.
	Items []*KnowledgeItem

	// Error is the error returned by the operation (nil if it succeeded).
	Error error
}
