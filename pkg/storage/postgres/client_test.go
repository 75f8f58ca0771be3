package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowbase/knowbase-go/pkg/storage"
	postgresStore "github.com/knowbase/knowbase-go/pkg/storage/postgres"
)

// vocabEmbedder produces deterministic embeddings by counting vocabulary
// words, plus a constant bias dimension so no vector is ever zero.
type vocabEmbedder struct {
	vocab []string
}

func newVocabEmbedder() *vocabEmbedder {
	return &vocabEmbedder{vocab: []string{"editor", "neovim", "coffee", "espresso", "go", "maps"}}
}

func (e *vocabEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	lower := strings.ToLower(text)
	vec := make([]float64, len(e.vocab)+1)
	for i, word := range e.vocab {
		vec[i] = float64(strings.Count(lower, word))
	}
	vec[len(e.vocab)] = 1
	return vec, nil
}

func (e *vocabEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *vocabEmbedder) Dimensions() int { return len(e.vocab) + 1 }

func (e *vocabEmbedder) Close() error { return nil }

// setupPostgresTest connects to the database named by POSTGRES_DSN and
// hands back a store plus a unique collection name. Tests are skipped
// when no database is reachable.
func setupPostgresTest(t *testing.T) (*postgresStore.Client, string) {
	t.Helper()

	_ = godotenv.Load(filepath.Join("..", "..", "..", ".env"))

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL test: POSTGRES_DSN not set")
	}

	store, err := postgresStore.NewClient(&postgresStore.Config{
		DSN:      dsn,
		Embedder: newVocabEmbedder(),
	})
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: failed to connect: %v", err)
	}

	collection := fmt.Sprintf("test_knowledge_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			_, _ = db.Exec("DROP TABLE IF EXISTS " + collection)
			_ = db.Close()
		}
		_ = store.Close()
	})

	return store, collection
}

func TestPostgresInsertAndCount(t *testing.T) {
	store, collection := setupPostgresTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, collection, storage.Document{
		ID:       "k1",
		Content:  "User prefers the Neovim editor",
		Metadata: map[string]string{"topic": "Editors"},
	}))
	require.NoError(t, store.Insert(ctx, collection, storage.Document{
		ID:      "k2",
		Content: "User brews espresso coffee each morning",
	}))

	count, err := store.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPostgresQueryRanksBySimilarity(t *testing.T) {
	store, collection := setupPostgresTest(t)
	ctx := context.Background()

	docs := []storage.Document{
		{ID: "doc_a", Content: "User switched to the Neovim editor"},
		{ID: "doc_b", Content: "User brews espresso coffee each morning"},
		{ID: "doc_c", Content: "User writes Go and fights with maps"},
	}
	for _, doc := range docs {
		require.NoError(t, store.Insert(ctx, collection, doc))
	}

	results, err := store.Query(ctx, collection, "which editor does the user like", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc_a", results[0].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestPostgresListAndMetadata(t *testing.T) {
	store, collection := setupPostgresTest(t)
	ctx := context.Background()

	metadata := map[string]string{
		"topic":            "Editors",
		"keywords":         "neovim,editor",
		"importance_score": "7",
	}
	require.NoError(t, store.Insert(ctx, collection, storage.Document{
		ID:       "doc_a",
		Content:  "User prefers the Neovim editor",
		Metadata: metadata,
	}))
	require.NoError(t, store.Insert(ctx, collection, storage.Document{
		ID:      "doc_b",
		Content: "User drinks coffee",
	}))

	docs, err := store.List(ctx, collection, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc_a", docs[0].ID)
	assert.Equal(t, metadata, docs[0].Metadata)
}
