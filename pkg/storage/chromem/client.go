// Package chromem implements storage.VectorStore on chromem-go, a pure
// Go embedded vector database. This is the default backend: no external
// service, data persisted under a local directory.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/knowbase/knowbase-go/pkg/embedder"
	"github.com/knowbase/knowbase-go/pkg/storage"
)

// Client implements storage.VectorStore using chromem-go collections.
//
// chromem-go has no API to enumerate a collection's documents, so the
// client keeps a per-collection journal of inserted documents (persisted
// as a JSON sidecar next to the database directory) to serve List.
type Client struct {
	db       *chromem.DB
	emb      embedder.Provider
	path     string
	mu       sync.RWMutex
	cols     map[string]*chromem.Collection
	journals map[string][]journalEntry
}

type journalEntry struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Config contains configuration for the chromem backend.
type Config struct {
	// Path is the directory holding the persistent database. Empty
	// selects a non-persisted in-memory database.
	Path string

	// Compress enables gzip compression of persisted collections.
	Compress bool

	// Embedder converts document and query text to vectors. Required.
	Embedder embedder.Provider
}

// NewClient creates a chromem-backed vector store.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("chromem: embedder is required")
	}

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: open database: %w", err)
		}
	}

	c := &Client{
		db:       db,
		emb:      cfg.Embedder,
		path:     cfg.Path,
		cols:     make(map[string]*chromem.Collection),
		journals: make(map[string][]journalEntry),
	}

	return c, nil
}

// embeddingFunc adapts the embedder.Provider to chromem's callback type.
func (c *Client) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vec, err := c.emb.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out := make([]float32, len(vec))
		for i, v := range vec {
			out[i] = float32(v)
		}
		return out, nil
	}
}

// getOrCreateCollection returns the named collection, creating it (and
// loading its journal) on first use.
func (c *Client) getOrCreateCollection(name string) (*chromem.Collection, error) {
	c.mu.RLock()
	col, ok := c.cols[name]
	c.mu.RUnlock()
	if ok {
		return col, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock.
	if col, ok := c.cols[name]; ok {
		return col, nil
	}

	col, err := c.db.GetOrCreateCollection(name, nil, c.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("chromem: get or create collection %q: %w", name, err)
	}

	journal, err := c.loadJournal(name)
	if err != nil {
		return nil, err
	}

	c.cols[name] = col
	c.journals[name] = journal
	return col, nil
}

// Insert stores doc in the named collection.
func (c *Client) Insert(ctx context.Context, collection string, doc storage.Document) error {
	col, err := c.getOrCreateCollection(collection)
	if err != nil {
		return err
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: copyMetadata(doc.Metadata),
	})
	if err != nil {
		return fmt.Errorf("chromem: add document: %w", err)
	}

	c.mu.Lock()
	c.journals[collection] = append(c.journals[collection], journalEntry{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: copyMetadata(doc.Metadata),
	})
	err = c.saveJournal(collection)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return nil
}

// Query returns up to limit documents most similar to the query text.
// chromem rejects nResults greater than the collection size, so the
// limit is clamped; an empty collection yields an empty result.
func (c *Client) Query(ctx context.Context, collection, query string, limit int) ([]storage.Document, error) {
	col, err := c.getOrCreateCollection(collection)
	if err != nil {
		return nil, err
	}

	n := col.Count()
	if n == 0 || limit <= 0 {
		return nil, nil
	}
	if limit < n {
		n = limit
	}

	results, err := col.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	docs := make([]storage.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, storage.Document{
			ID:       res.ID,
			Content:  res.Content,
			Metadata: copyMetadata(res.Metadata),
			Score:    float64(res.Similarity),
		})
	}
	return docs, nil
}

// Count returns the number of documents in the named collection.
func (c *Client) Count(ctx context.Context, collection string) (int, error) {
	col, err := c.getOrCreateCollection(collection)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// List returns up to limit documents in insertion order, served from the
// collection journal. limit <= 0 returns all documents.
func (c *Client) List(ctx context.Context, collection string, limit int) ([]storage.Document, error) {
	if _, err := c.getOrCreateCollection(collection); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	journal := c.journals[collection]
	n := len(journal)
	if limit > 0 && limit < n {
		n = limit
	}

	docs := make([]storage.Document, 0, n)
	for _, entry := range journal[:n] {
		docs = append(docs, storage.Document{
			ID:       entry.ID,
			Content:  entry.Content,
			Metadata: copyMetadata(entry.Metadata),
		})
	}
	return docs, nil
}

// Close releases resources. chromem persists on write, so there is
// nothing to flush.
func (c *Client) Close() error {
	return nil
}

// journalPath returns the sidecar file for a collection, or "" for
// in-memory databases. Journals live in a sibling directory so chromem's
// own data directory only ever contains its collection layout.
func (c *Client) journalPath(collection string) string {
	if c.path == "" {
		return ""
	}
	return filepath.Join(c.path+".index", collection+".json")
}

// loadJournal reads a collection's sidecar journal. A missing file is an
// empty journal.
func (c *Client) loadJournal(collection string) ([]journalEntry, error) {
	path := c.journalPath(collection)
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chromem: read journal: %w", err)
	}

	var journal []journalEntry
	if err := json.Unmarshal(data, &journal); err != nil {
		return nil, fmt.Errorf("chromem: parse journal: %w", err)
	}
	return journal, nil
}

// saveJournal writes a collection's sidecar journal. Caller holds the
// write lock.
func (c *Client) saveJournal(collection string) error {
	path := c.journalPath(collection)
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("chromem: create journal directory: %w", err)
	}
	data, err := json.Marshal(c.journals[collection])
	if err != nil {
		return fmt.Errorf("chromem: marshal journal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("chromem: write journal: %w", err)
	}
	return nil
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
