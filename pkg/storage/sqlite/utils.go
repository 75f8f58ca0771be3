package sqlite

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/knowbase/knowbase-go/pkg/storage"
)

var collectionNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateCollection rejects collection names that cannot be used as SQL
// identifiers. Collection names are interpolated into statements, so
// anything beyond [A-Za-z0-9_] is refused.
func validateCollection(name string) error {
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("sqlite: invalid collection name %q", name)
	}
	return nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortByScore sorts documents by score descending, preserving relative
// order of equal scores, and truncates to limit.
func sortByScore(docs []storage.Document, limit int) []storage.Document {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})

	if limit > 0 && len(docs) > limit {
		return docs[:limit]
	}
	return docs
}
