// Package sqlite implements storage.VectorStore on SQLite.
//
// SQLite has no native vector type, so embeddings are stored as JSON
// strings in TEXT columns and similarity search loads the collection and
// ranks by cosine similarity in memory. Suitable for local deployments
// and modest collection sizes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/knowbase/knowbase-go/pkg/embedder"
	"github.com/knowbase/knowbase-go/pkg/storage"
)

// Client implements storage.VectorStore using one SQLite table per
// collection.
type Client struct {
	db  *sql.DB
	emb embedder.Provider

	mu     sync.Mutex
	tables map[string]bool
}

// Config contains configuration for the SQLite backend.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// Embedder converts document and query text to vectors. Required.
	Embedder embedder.Provider
}

// NewClient creates a SQLite-backed vector store.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("sqlite: embedder is required")
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Client{
		db:     db,
		emb:    cfg.Embedder,
		tables: make(map[string]bool),
	}, nil
}

// ensureTable creates the collection's table on first use.
func (c *Client) ensureTable(ctx context.Context, collection string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tables[collection] {
		return nil
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, collection)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlite: create table %s: %w", collection, err)
	}

	c.tables[collection] = true
	return nil
}

// Insert embeds doc.Content and stores the document. A duplicate ID
// violates the primary key and surfaces as a driver error.
func (c *Client) Insert(ctx context.Context, collection string, doc storage.Document) error {
	if err := c.ensureTable(ctx, collection); err != nil {
		return err
	}

	embedding, err := c.emb.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("sqlite: embed document: %w", err)
	}

	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("sqlite: marshal embedding: %w", err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, collection)

	_, err = c.db.ExecContext(ctx, query,
		doc.ID,
		doc.Content,
		string(embeddingJSON),
		string(metadataJSON),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert: %w", err)
	}

	return nil
}

// Query embeds the query text and ranks the collection by cosine
// similarity in memory, best first, truncated to limit.
func (c *Client) Query(ctx context.Context, collection, query string, limit int) ([]storage.Document, error) {
	if err := c.ensureTable(ctx, collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	queryEmbedding, err := c.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: embed query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, content, embedding, metadata FROM %s ORDER BY created_at, id
	`, collection))
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []storage.Document
	for rows.Next() {
		doc, embedding, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		doc.Score = cosineSimilarity(queryEmbedding, embedding)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}

	return sortByScore(docs, limit), nil
}

// Count returns the number of documents in the collection.
func (c *Client) Count(ctx context.Context, collection string) (int, error) {
	if err := c.ensureTable(ctx, collection); err != nil {
		return 0, err
	}

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", collection)
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return count, nil
}

// List returns up to limit documents in insertion order. limit <= 0
// returns all documents.
func (c *Client) List(ctx context.Context, collection string, limit int) ([]storage.Document, error) {
	if err := c.ensureTable(ctx, collection); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, content, embedding, metadata FROM %s ORDER BY created_at, id", collection)
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []storage.Document
	for rows.Next() {
		doc, _, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	return docs, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// scanDocument scans one row into a Document plus its embedding.
func scanDocument(rows *sql.Rows) (storage.Document, []float64, error) {
	var (
		doc          storage.Document
		embeddingStr string
		metadataStr  sql.NullString
	)
	if err := rows.Scan(&doc.ID, &doc.Content, &embeddingStr, &metadataStr); err != nil {
		return storage.Document{}, nil, fmt.Errorf("sqlite: scan: %w", err)
	}

	var embedding []float64
	if err := json.Unmarshal([]byte(embeddingStr), &embedding); err != nil {
		return storage.Document{}, nil, fmt.Errorf("sqlite: parse embedding: %w", err)
	}

	if metadataStr.Valid && metadataStr.String != "" && metadataStr.String != "null" {
		if err := json.Unmarshal([]byte(metadataStr.String), &doc.Metadata); err != nil {
			return storage.Document{}, nil, fmt.Errorf("sqlite: parse metadata: %w", err)
		}
	}

	return doc, embedding, nil
}
